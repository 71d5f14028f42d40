package reconcile

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/rtrarchive/internal/model"
)

// UnknownReference is reported when the functional structure reference
// cannot be recovered from a record
const UnknownReference = "Unknown"

// ErrMissingField matches any *MissingFieldError via errors.Is
var ErrMissingField = errors.New("missing field")

// MissingFieldError reports an absent key on an expected JSON path
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("data missing key: '%s'", e.Field)
}

// Is implements errors.Is support
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// URNShortName returns the last dot-delimited segment of urn
func URNShortName(urn string) string {
	return urn[strings.LastIndex(urn, ".")+1:]
}

// WorkItems joins the trailing path segment of every work-item href with
// ", ". No work items yields the empty string.
func WorkItems(p *model.ActivityPayload) string {
	if p.Links == nil || len(p.Links.WorkItems) == 0 {
		return ""
	}

	ids := make([]string, 0, len(p.Links.WorkItems))
	for _, link := range p.Links.WorkItems {
		ids = append(ids, link.Href[strings.LastIndex(link.Href, "/")+1:])
	}
	return strings.Join(ids, ", ")
}

// LastChangeDate returns the last-change date of the first embedded
// applicable rule, or "" when there is none
func LastChangeDate(r *model.ApplicableRuleRecord) string {
	if r.Embedded == nil || len(r.Embedded.ApplicableRules) == 0 {
		return ""
	}
	return r.Embedded.ApplicableRules[0].LastChanged
}

// DocumentHref extracts _embedded.toepasbareRegels[0]._links.sttrBestand.href
func DocumentHref(r *model.ApplicableRuleRecord) (string, error) {
	if r.Embedded == nil {
		return "", &MissingFieldError{Field: "_embedded"}
	}
	if len(r.Embedded.ApplicableRules) == 0 {
		return "", &MissingFieldError{Field: "toepasbareRegels"}
	}

	rule := r.Embedded.ApplicableRules[0]
	if rule.Links == nil {
		return "", &MissingFieldError{Field: "_links"}
	}
	if rule.Links.RuleFile == nil {
		return "", &MissingFieldError{Field: "sttrBestand"}
	}
	if rule.Links.RuleFile.Href == "" {
		return "", &MissingFieldError{Field: "href"}
	}
	return rule.Links.RuleFile.Href, nil
}

// RecoverReference recovers the functional structure reference from the
// record's self link query, keeping only its last path segment
func RecoverReference(r *model.ApplicableRuleRecord) (string, bool) {
	if r == nil || r.Links == nil || r.Links.Self == nil {
		return "", false
	}

	parsed, err := url.Parse(r.Links.Self.Href)
	if err != nil {
		return "", false
	}

	ref := parsed.Query().Get("functioneleStructuurRef")
	ref = ref[strings.LastIndex(ref, "/")+1:]
	if ref == "" {
		return "", false
	}
	return ref, true
}

// ReferenceOrUnknown is RecoverReference with the UnknownReference fallback
func ReferenceOrUnknown(r *model.ApplicableRuleRecord) string {
	if ref, ok := RecoverReference(r); ok {
		return ref
	}
	return UnknownReference
}
