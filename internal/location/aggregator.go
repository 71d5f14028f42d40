package location

import (
	"github.com/ppiankov/rtrarchive/internal/model"
)

// Sink receives the full location map on every flush
type Sink interface {
	WriteEntries(entries []model.KeyedValues) error
}

// Aggregator accumulates resolved area names per activity description.
// Descriptions keep first-seen order; names are appended, never deduplicated.
type Aggregator struct {
	resolver *Resolver
	sink     Sink
	enabled  bool
	order    []string
	names    map[string][]string
}

// NewAggregator creates an aggregator. When enabled is false, Record is a no-op.
func NewAggregator(resolver *Resolver, sink Sink, enabled bool) *Aggregator {
	return &Aggregator{
		resolver: resolver,
		sink:     sink,
		enabled:  enabled,
		names:    make(map[string][]string),
	}
}

// Enabled reports whether location tracking is on
func (a *Aggregator) Enabled() bool {
	return a != nil && a.enabled
}

// Record resolves identifiers, appends them under description and flushes
// the whole map to the sink. It returns the resolved names.
func (a *Aggregator) Record(description string, identifiers []string) ([]string, error) {
	if !a.Enabled() {
		return nil, nil
	}

	resolved := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		resolved = append(resolved, a.resolver.Resolve(id))
	}

	if _, seen := a.names[description]; !seen {
		a.order = append(a.order, description)
	}
	a.names[description] = append(a.names[description], resolved...)

	return resolved, a.Flush()
}

// Flush writes the current map to the sink
func (a *Aggregator) Flush() error {
	if a.sink == nil {
		return nil
	}
	return a.sink.WriteEntries(a.Entries())
}

// Entries returns the map in first-seen description order
func (a *Aggregator) Entries() []model.KeyedValues {
	if a == nil {
		return nil
	}

	entries := make([]model.KeyedValues, 0, len(a.order))
	for _, desc := range a.order {
		values := make([]string, len(a.names[desc]))
		copy(values, a.names[desc])
		entries = append(entries, model.KeyedValues{Key: desc, Values: values})
	}
	return entries
}

// Len returns the number of distinct descriptions recorded
func (a *Aggregator) Len() int {
	if a == nil {
		return 0
	}
	return len(a.order)
}
