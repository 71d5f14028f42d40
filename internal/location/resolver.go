// Package location resolves location identifiers to area names and
// collects them per activity description.
package location

import "strings"

// Jurisdiction identifier and label of the district's own area. It is
// resolved without consulting the area table.
const (
	JurisdictionIdentifier = "nl.imow-ws0636.ambtsgebied.HDSR"
	JurisdictionLabel      = "ambtsgebied HDSR"
)

// Resolver maps location identifiers to area names
type Resolver struct {
	areas map[string]string
}

// NewResolver creates a resolver over an area table keyed by area index
// without leading zeros
func NewResolver(areas map[string]string) *Resolver {
	if areas == nil {
		areas = map[string]string{}
	}
	return &Resolver{areas: areas}
}

// Resolve returns the area name for identifier. A miss is not an error: it
// yields "null: <identifier>" so the gap shows up in the output.
func (r *Resolver) Resolve(identifier string) string {
	if identifier == JurisdictionIdentifier {
		return JurisdictionLabel
	}

	if name, ok := r.areas[AreaKey(identifier)]; ok {
		return name
	}
	return "null: " + identifier
}

// AreaKey derives the table key: the last two characters of the final
// dot-delimited segment with leading zeros removed
func AreaKey(identifier string) string {
	segment := identifier[strings.LastIndex(identifier, ".")+1:]

	runes := []rune(segment)
	if len(runes) > 2 {
		runes = runes[len(runes)-2:]
	}

	return strings.TrimLeft(string(runes), "0")
}
