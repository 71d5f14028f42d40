package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ppiankov/rtrarchive/internal/reconcile"
)

// RunSummary counts the outcomes of a run
type RunSummary struct {
	Activities       int
	Written          int
	Skipped          int // Activities whose detail fetch failed
	RowFailures      int
	Objects          int
	ObjectFailures   int
	MissingDocuments int
	IndexUpdates     int
	Indexed          int // Distinct documents in the archive index
	NullSkipped      int
	Documents        int // Documents archived
	DocumentFailures int
	LocationFailures int
	Locations        int // Distinct activity descriptions in the location map
	Duration         time.Duration
}

func (s *RunSummary) finish(r *reconcile.Reconciler, start time.Time) {
	stats := r.Stats()
	s.Objects = stats.Objects
	s.ObjectFailures = stats.ObjectFailures
	s.MissingDocuments = stats.MissingDocuments
	s.IndexUpdates = stats.Indexed
	s.Indexed = r.Index().Len()
	s.NullSkipped = stats.NullSkipped
	s.LocationFailures = stats.FlushFailures
	s.Locations = r.Locations().Len()
	s.Duration = time.Since(start)
}

// Render writes the summary as a table
func (s *RunSummary) Render(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Run summary")
	tw.AppendHeader(table.Row{"Metric", "Count"})
	tw.AppendRows([]table.Row{
		{"Activities", s.Activities},
		{"Rows written", s.Written},
		{"Activities skipped", s.Skipped},
		{"Row write failures", s.RowFailures},
		{"Rule objects", s.Objects},
		{"Rule object fetch failures", s.ObjectFailures},
		{"Missing document references", s.MissingDocuments},
		{"Index updates", s.IndexUpdates},
		{"Documents indexed", s.Indexed},
		{"Skipped null-type documents", s.NullSkipped},
		{"Documents archived", s.Documents},
		{"Document failures", s.DocumentFailures},
		{"Location descriptions", s.Locations},
		{"Location write failures", s.LocationFailures},
	})
	tw.AppendFooter(table.Row{"Duration", s.Duration.Round(time.Millisecond).String()})
	tw.Render()
}

// String is a one-line form for logs
func (s *RunSummary) String() string {
	return fmt.Sprintf("%d/%d activities written, %d skipped, %d documents archived",
		s.Written, s.Activities, s.Skipped, s.Documents)
}
