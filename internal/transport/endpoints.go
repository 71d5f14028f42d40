package transport

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoints composes API URLs for one run date
type Endpoints struct {
	base string
	date string
}

// NewEndpoints creates URL templates for base and a dd-mm-yyyy date
func NewEndpoints(base, date string) *Endpoints {
	return &Endpoints{base: strings.TrimRight(base, "/"), date: date}
}

// ActivityURL returns the activity detail URL
func (e *Endpoints) ActivityURL(uri string) string {
	return fmt.Sprintf("%s/rtrgegevens/v2/activiteiten/%s?datum=%s",
		e.base, url.PathEscape(uri), url.QueryEscape(e.date))
}

// ApplicableRuleURL returns the applicable-rule lookup URL for a functional structure reference
func (e *Endpoints) ApplicableRuleURL(ref string) string {
	return fmt.Sprintf("%s/toepasbareregelsuitvoerengegevens/v1/toepasbareRegels?functioneleStructuurRef=%s&datum=%s",
		e.base, url.QueryEscape(ref), url.QueryEscape(e.date))
}
