package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/rtrarchive/internal/location"
	"github.com/ppiankov/rtrarchive/internal/logging"
	"github.com/ppiankov/rtrarchive/internal/model"
	"github.com/ppiankov/rtrarchive/internal/reconcile"
	"github.com/ppiankov/rtrarchive/internal/sink"
	"github.com/ppiankov/rtrarchive/internal/transport"
)

// fakeRows records written rows by index
type fakeRows struct {
	rows map[int][]string
}

func (f *fakeRows) WriteRow(row int, fields []string) error {
	if f.rows == nil {
		f.rows = make(map[int][]string)
	}
	f.rows[row] = fields
	return nil
}

// newAPI serves a small activity catalog:
//   - act-ok:   two rule objects, one of them with a failing applicable-rule lookup
//   - act-gone: activity fetch fails with 500
//   - act-last: one rule object whose document download fails
func newAPI(t *testing.T, docHits *atomic.Int32) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/rtrgegevens/v2/activiteiten/act-ok":
			_, _ = fmt.Fprint(w, `{"urn":"nl.imow-ws0636.activiteit.Lozen","omschrijving":"Lozen",
				"_links":{"werkzaamheden":[{"href":"/w/100"}]},
				"regelBeheerObjecten":[
					{"typering":"Melding","functioneleStructuurRef":"ref-meld"},
					{"typering":"Informatie","functioneleStructuurRef":"ref-broken"}
				],
				"locaties":[{"identificatie":"nl.imow-ws0636.gebied.007"}]}`)
		case r.URL.Path == "/rtrgegevens/v2/activiteiten/act-gone":
			w.WriteHeader(http.StatusInternalServerError)
		case r.URL.Path == "/rtrgegevens/v2/activiteiten/act-last":
			_, _ = fmt.Fprint(w, `{"urn":"nl.imow-ws0636.activiteit.Onttrekken",
				"regelBeheerObjecten":[{"typering":"Indieningsvereisten","toestemming":{"waarde":"Conclusie"},"functioneleStructuurRef":"ref-concl"}]}`)
		case r.URL.Path == "/toepasbareregelsuitvoerengegevens/v1/toepasbareRegels":
			switch r.URL.Query().Get("functioneleStructuurRef") {
			case "ref-meld":
				_, _ = fmt.Fprintf(w, `{"_embedded":{"toepasbareRegels":[{"laatsteWijzigingDatum":"01-01-2024",
					"_links":{"sttrBestand":{"href":"%s/docs/toepasbareRegels/11/sttr"}}}]}}`, server.URL)
			case "ref-concl":
				_, _ = fmt.Fprintf(w, `{"_embedded":{"toepasbareRegels":[{"laatsteWijzigingDatum":"02-02-2024",
					"_links":{"sttrBestand":{"href":"%s/docs/toepasbareRegels/22/sttr"}}}]}}`, server.URL)
			default:
				w.WriteHeader(http.StatusBadGateway)
			}
		case strings.HasPrefix(r.URL.Path, "/docs/toepasbareRegels/11/"):
			docHits.Add(1)
			_, _ = fmt.Fprint(w, "<sttr id=\"11\"/>")
		case strings.HasPrefix(r.URL.Path, "/docs/toepasbareRegels/22/"):
			docHits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseURL string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.RateLimiting.RequestsPerSecond = 0
	cfg.Run.Date = "19-10-2026"
	return cfg
}

var testActivities = []model.Activity{
	{Name: "Lozen", URI: "act-ok", Group: "Water", RuleReference: "art. 1"},
	{Name: "Weg", URI: "act-gone", Group: "Water", RuleReference: "art. 2"},
	{Name: "Onttrekken", URI: "act-last", Group: "Grondwater", RuleReference: "art. 3"},
}

func newTestPipeline(t *testing.T, server *httptest.Server, archive bool, docDir string) (*Pipeline, *fakeRows, *reconcile.Reconciler) {
	t.Helper()
	cfg := testConfig(server.URL)
	fetcher := transport.NewFetcher(cfg, "test-key")
	reconciler := reconcile.NewReconciler(fetcher, transport.NewEndpoints(server.URL, cfg.Run.Date), nil, nil)
	rows := &fakeRows{}

	var docs DocumentWriter
	if archive {
		docs = sink.NewDocumentDir(docDir)
	}
	return New(reconciler, fetcher, rows, docs, archive), rows, reconciler
}

func TestRun_ContinuesPastFailures(t *testing.T) {
	var docHits atomic.Int32
	server := newAPI(t, &docHits)
	docDir := filepath.Join(t.TempDir(), "docs")

	p, rows, _ := newTestPipeline(t, server, true, docDir)
	tl := logging.NewTestLogger(t)

	summary, err := p.Run(tl.Context(), testActivities)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Activities != 3 || summary.Written != 2 || summary.Skipped != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if summary.ObjectFailures != 1 {
		t.Errorf("Expected 1 object failure, got %d", summary.ObjectFailures)
	}
	if summary.Documents != 1 || summary.DocumentFailures != 1 {
		t.Errorf("Expected 1 archived and 1 failed document, got %d/%d", summary.Documents, summary.DocumentFailures)
	}

	first, ok := rows.rows[2]
	if !ok {
		t.Fatal("Expected row 2 for the first activity")
	}
	want := []string{"Lozen", "act-ok", "Water", "art. 1", "100", "", "01-01-2024", "", ""}
	if strings.Join(first, "|") != strings.Join(want, "|") {
		t.Errorf("Row 2 = %v, want %v", first, want)
	}
	if _, ok := rows.rows[3]; ok {
		t.Error("Expected no row for the failed activity")
	}
	if got := rows.rows[4]; len(got) != model.RowWidth || got[5] != "02-02-2024" {
		t.Errorf("Unexpected row 4: %v", got)
	}

	data, err := os.ReadFile(filepath.Join(docDir, "STTR_11_Lozen_Melding.xml"))
	if err != nil {
		t.Fatalf("Expected archived document: %v", err)
	}
	if string(data) != "<sttr id=\"11\"/>" {
		t.Errorf("Unexpected document body: %s", data)
	}
	if _, err := os.Stat(filepath.Join(docDir, "STTR_22_Onttrekken_Conclusie.xml")); !os.IsNotExist(err) {
		t.Error("Expected no file for the failed download")
	}

	if !tl.Contains(`"uri":"act-gone"`) || !tl.Contains(`"status":500`) {
		t.Errorf("Expected activity failure to be logged with uri and status, got:\n%s", tl.Output())
	}
}

func TestRun_OversizedDocumentIsSkipped(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rtrgegevens/v2/activiteiten/act-big":
			_, _ = fmt.Fprint(w, `{"urn":"x.Lozen","regelBeheerObjecten":[{"typering":"Melding","functioneleStructuurRef":"ref-big"}]}`)
		case r.URL.Path == "/toepasbareregelsuitvoerengegevens/v1/toepasbareRegels":
			_, _ = fmt.Fprintf(w, `{"_embedded":{"toepasbareRegels":[{"laatsteWijzigingDatum":"03-03-2024",
				"_links":{"sttrBestand":{"href":"%s/docs/toepasbareRegels/5/sttr"}}}]}}`, server.URL)
		case strings.HasPrefix(r.URL.Path, "/docs/toepasbareRegels/5/"):
			_, _ = fmt.Fprint(w, "<sttr>"+strings.Repeat("x", 1000)+"</sttr>")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.HTTP.MaxBodyBytes = 500
	fetcher := transport.NewFetcher(cfg, "test-key")
	reconciler := reconcile.NewReconciler(fetcher, transport.NewEndpoints(server.URL, cfg.Run.Date), nil, nil)
	docDir := filepath.Join(t.TempDir(), "docs")
	p := New(reconciler, fetcher, &fakeRows{}, sink.NewDocumentDir(docDir), true)
	tl := logging.NewTestLogger(t)

	summary, err := p.Run(tl.Context(), []model.Activity{{Name: "Lozen", URI: "act-big"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Written != 1 {
		t.Errorf("Expected the row to be written, got %d", summary.Written)
	}
	if summary.Documents != 0 || summary.DocumentFailures != 1 {
		t.Errorf("Expected 0 archived and 1 failed document, got %d/%d", summary.Documents, summary.DocumentFailures)
	}
	if _, err := os.Stat(filepath.Join(docDir, "STTR_5_Lozen_Melding.xml")); !os.IsNotExist(err) {
		t.Error("Expected no file for an oversized document")
	}
	if !tl.Contains("failed to download document") {
		t.Errorf("Expected download failure to be logged, got:\n%s", tl.Output())
	}
}

func TestRun_ArchiveDisabled(t *testing.T) {
	var docHits atomic.Int32
	server := newAPI(t, &docHits)

	p, _, reconciler := newTestPipeline(t, server, false, "")
	summary, err := p.Run(context.Background(), testActivities)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if docHits.Load() != 0 {
		t.Errorf("Expected no document downloads, got %d", docHits.Load())
	}
	if summary.Documents != 0 {
		t.Errorf("Expected 0 documents, got %d", summary.Documents)
	}
	if reconciler.Index().Len() != 2 || summary.Indexed != 2 {
		t.Errorf("Expected index to still be populated, got %d entries", reconciler.Index().Len())
	}
	if summary.Locations != 0 {
		t.Errorf("Expected no location map without tracking, got %d", summary.Locations)
	}
}

func TestRun_Cancelled(t *testing.T) {
	var docHits atomic.Int32
	server := newAPI(t, &docHits)
	p, rows, _ := newTestPipeline(t, server, false, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := p.Run(ctx, testActivities)
	if err == nil {
		t.Fatal("Expected error for cancelled context")
	}
	if summary.Written != 0 || len(rows.rows) != 0 {
		t.Errorf("Expected nothing written, got %+v", summary)
	}
}

func TestBuild_LocationsAndWorkbook(t *testing.T) {
	var docHits atomic.Int32
	server := newAPI(t, &docHits)
	dir := t.TempDir()

	cfg := testConfig(server.URL)
	cfg.Output.Dir = filepath.Join(dir, "output")
	cfg.Output.LogDir = filepath.Join(dir, "log")
	cfg.Run.TrackLocations = true
	cfg.Run.ArchiveDocuments = true

	catalog := &model.Catalog{Activities: testActivities, Areas: map[string]string{"7": "Polder X"}}
	p, workbook, err := Build(cfg, catalog, "test-key")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	summary, err := p.Run(context.Background(), catalog.Activities)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := workbook.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "rtr_prod_19-10-2026.xlsx")); err != nil {
		t.Errorf("Expected workbook on disk: %v", err)
	}

	locations, err := os.ReadFile(filepath.Join(cfg.Output.LogDir, "werkingsgebieden_19-10-2026.txt"))
	if err != nil {
		t.Fatalf("Expected location file: %v", err)
	}
	want := "Lozen\n\tPolder X\n\nNo description\n\n"
	if string(locations) != want {
		t.Errorf("Location file = %q, want %q", locations, want)
	}

	if _, err := os.Stat(filepath.Join(cfg.Output.LogDir, "STTR_RegelBeheerObjecten", "STTR_11_Lozen_Melding.xml")); err != nil {
		t.Errorf("Expected archived document: %v", err)
	}
	if summary.Written != 2 {
		t.Errorf("Expected 2 rows written, got %d", summary.Written)
	}
	if summary.Locations != 2 {
		t.Errorf("Expected 2 location descriptions, got %d", summary.Locations)
	}
	if summary.Indexed != 2 || summary.IndexUpdates != 2 {
		t.Errorf("Expected 2 indexed documents, got %d (%d updates)", summary.Indexed, summary.IndexUpdates)
	}
}

func TestBuild_LocationsDisabledWritesNoFile(t *testing.T) {
	var docHits atomic.Int32
	server := newAPI(t, &docHits)
	dir := t.TempDir()

	cfg := testConfig(server.URL)
	cfg.Output.Dir = filepath.Join(dir, "output")
	cfg.Output.LogDir = filepath.Join(dir, "log")

	p, workbook, err := Build(cfg, &model.Catalog{Areas: map[string]string{}}, "test-key")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer func() { _ = workbook.Close() }()

	if _, err := p.Run(context.Background(), testActivities[:1]); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.LogDir, "werkingsgebieden_19-10-2026.txt")); !os.IsNotExist(err) {
		t.Error("Expected no location file when tracking is disabled")
	}
}

func TestDocumentIdentifier(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://api.test/toepasbareRegels/123/sttr", "123", true},
		{"https://api.test/toepasbareRegels/abc-9", "abc-9", true},
		{"https://api.test/toepasbareRegels/42?datum=01-01-2024", "42", true},
		{"https://api.test/other/42", "", false},
		{"https://api.test/toepasbareRegels/", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := DocumentIdentifier(tt.url)
			if got != tt.want || ok != tt.ok {
				t.Errorf("DocumentIdentifier(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRunSummary_Render(t *testing.T) {
	s := &RunSummary{Activities: 3, Written: 2, Skipped: 1, Documents: 1}
	var buf bytes.Buffer
	s.Render(&buf)

	out := buf.String()
	for _, want := range []string{"Run summary", "Rows written", "Activities skipped"} {
		if !strings.Contains(strings.ToLower(out), strings.ToLower(want)) {
			t.Errorf("Expected %q in summary:\n%s", want, out)
		}
	}
	if s.String() != "2/3 activities written, 1 skipped, 1 documents archived" {
		t.Errorf("Unexpected summary line: %s", s.String())
	}
}

func TestNew_ArchiveWithoutWriterIsDisabled(t *testing.T) {
	r := reconcile.NewReconciler(nil, transport.NewEndpoints("http://x", "01-01-2024"), nil, location.NewAggregator(location.NewResolver(nil), nil, false))
	p := New(r, nil, &fakeRows{}, nil, true)
	if p.archive {
		t.Error("Expected archiving to be disabled without a document writer")
	}
}
