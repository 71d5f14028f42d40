// Package reconcile turns activity payloads into flat output rows: it
// classifies rule-management objects, follows their applicable-rule
// references and collects archivable document links.
package reconcile

import (
	"context"
	"fmt"

	"github.com/ppiankov/rtrarchive/internal/location"
	"github.com/ppiankov/rtrarchive/internal/logging"
	"github.com/ppiankov/rtrarchive/internal/model"
	"github.com/ppiankov/rtrarchive/internal/transport"
)

// Fetcher is the fetch capability the reconciler depends on
type Fetcher interface {
	FetchJSON(ctx context.Context, url string, v any) error
}

// FetchError is returned when an activity's detail could not be fetched.
// The activity produces no output row.
type FetchError struct {
	URI string
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch activity %s: %v", e.URI, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of the failed fetch, 0 if none
func (e *FetchError) StatusCode() int {
	return transport.StatusCode(e.Err)
}

// Stats counts per-object outcomes across all reconciled activities
type Stats struct {
	Objects          int // Rule-management objects seen
	ObjectFailures   int // Applicable-rule fetches that failed
	MissingDocuments int // Records without an extractable document href
	NullSkipped      int // Documents skipped because of the null label
	Indexed          int // Documents added to the archive index
	FlushFailures    int // Location map writes that failed
}

// Reconciler processes activities one at a time
type Reconciler struct {
	fetcher   Fetcher
	endpoints *transport.Endpoints
	index     *ArchiveIndex
	locations *location.Aggregator
	stats     Stats
}

// NewReconciler creates a reconciler. locations may be nil when location
// tracking is off.
func NewReconciler(fetcher Fetcher, endpoints *transport.Endpoints, index *ArchiveIndex, locations *location.Aggregator) *Reconciler {
	if index == nil {
		index = NewArchiveIndex()
	}
	return &Reconciler{
		fetcher:   fetcher,
		endpoints: endpoints,
		index:     index,
		locations: locations,
	}
}

// Index returns the archive index populated by Reconcile
func (r *Reconciler) Index() *ArchiveIndex {
	return r.index
}

// Locations returns the location aggregator, nil when tracking is off
func (r *Reconciler) Locations() *location.Aggregator {
	return r.locations
}

// Stats returns the object counters so far
func (r *Reconciler) Stats() Stats {
	return r.stats
}

// Reconcile fetches one activity and assembles its output row. Failures
// below the activity level are logged and skipped; only a failed activity
// fetch is returned, as a *FetchError.
func (r *Reconciler) Reconcile(ctx context.Context, activity model.Activity) (*model.OutputRow, error) {
	log := logging.FromContext(ctx)

	url := r.endpoints.ActivityURL(activity.URI)
	var payload model.ActivityPayload
	if err := r.fetcher.FetchJSON(ctx, url, &payload); err != nil {
		return nil, &FetchError{URI: activity.URI, URL: url, Err: err}
	}

	row := &model.OutputRow{
		Name:          activity.Name,
		URI:           activity.URI,
		Group:         activity.Group,
		RuleReference: activity.RuleReference,
		WorkItems:     WorkItems(&payload),
	}

	short := URNShortName(payload.URN)
	for _, obj := range payload.RuleObjects {
		r.reconcileObject(ctx, short, obj, &row.Changes)
	}

	if r.locations.Enabled() {
		description := payload.DescriptionOrDefault()
		if _, err := r.locations.Record(description, payload.LocationIdentifications()); err != nil {
			r.stats.FlushFailures++
			log.Warn().Err(err).Str("description", description).Msg("failed to write location map")
		}
	}

	return row, nil
}

func (r *Reconciler) reconcileObject(ctx context.Context, urnShortName string, obj model.RuleManagementObject, changes *model.ChangeVector) {
	log := logging.FromContext(ctx)
	r.stats.Objects++

	c := Classify(obj)
	url := r.endpoints.ApplicableRuleURL(c.FunctionalStructureRef)

	var record model.ApplicableRuleRecord
	if err := r.fetcher.FetchJSON(ctx, url, &record); err != nil {
		r.stats.ObjectFailures++
		log.Warn().
			Err(err).
			Str("url", url).
			Int("status", transport.StatusCode(err)).
			Str("ref", c.FunctionalStructureRef).
			Msg("failed to fetch applicable rule")
		return
	}

	href, err := DocumentHref(&record)
	switch {
	case err != nil:
		r.stats.MissingDocuments++
		log.Warn().
			Err(err).
			Str("ref", ReferenceOrUnknown(&record)).
			Msg("applicable rule has no document reference")
	case r.index.Add(urnShortName, c.Label, href):
		r.stats.Indexed++
	default:
		r.stats.NullSkipped++
		log.Debug().Str("ref", c.FunctionalStructureRef).Msg("skipping document with null type")
	}

	if changes.Set(c.Category, LastChangeDate(&record)) {
		log.Debug().Str("category", c.Category.String()).Str("ref", c.FunctionalStructureRef).Msg("change vector updated")
	}
}
