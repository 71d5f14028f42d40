package model

// Wire types for the rules-and-regulations API. Every nested object is a
// pointer or slice: the API omits keys freely and the reconciler needs to
// tell an absent key from an empty value.

// Link is a HAL link object
type Link struct {
	Href string `json:"href"`
}

// ActivityPayload is the activity detail response
type ActivityPayload struct {
	URN         string                 `json:"urn"`
	Description *string                `json:"omschrijving"`
	Links       *ActivityLinks         `json:"_links"`
	RuleObjects []RuleManagementObject `json:"regelBeheerObjecten"`
	Locations   []LocationRef          `json:"locaties"`
}

// ActivityLinks holds the links section of an activity payload
type ActivityLinks struct {
	WorkItems []Link `json:"werkzaamheden"`
}

// LocationRef is one location identification attached to an activity
type LocationRef struct {
	Identification string `json:"identificatie"`
}

// RuleManagementObject describes one regulatory decision artifact of an activity
type RuleManagementObject struct {
	Type                   string      `json:"typering"`
	Permission             *Permission `json:"toestemming,omitempty"`
	FunctionalStructureRef string      `json:"functioneleStructuurRef"`
}

// Permission carries the real category of a submission-requirement object
type Permission struct {
	Value *string `json:"waarde"`
}

// ApplicableRuleRecord is the applicable-rule lookup response
type ApplicableRuleRecord struct {
	Embedded *ApplicableRuleEmbedded `json:"_embedded"`
	Links    *SelfLinks              `json:"_links"`
}

// ApplicableRuleEmbedded holds the embedded applicable rules
type ApplicableRuleEmbedded struct {
	ApplicableRules []ApplicableRule `json:"toepasbareRegels"`
}

// ApplicableRule is one applicable-rule entry
type ApplicableRule struct {
	LastChanged string               `json:"laatsteWijzigingDatum"`
	Links       *ApplicableRuleLinks `json:"_links"`
}

// ApplicableRuleLinks holds the links of an applicable rule
type ApplicableRuleLinks struct {
	RuleFile *Link `json:"sttrBestand"`
}

// SelfLinks holds a HAL self link
type SelfLinks struct {
	Self *Link `json:"self"`
}

// DefaultDescription is used when an activity payload carries no description
const DefaultDescription = "No description"

// DescriptionOrDefault returns the activity description or DefaultDescription
func (p *ActivityPayload) DescriptionOrDefault() string {
	if p.Description == nil {
		return DefaultDescription
	}
	return *p.Description
}

// LocationIdentifications returns the location identification strings in payload order
func (p *ActivityPayload) LocationIdentifications() []string {
	ids := make([]string, 0, len(p.Locations))
	for _, loc := range p.Locations {
		ids = append(ids, loc.Identification)
	}
	return ids
}

// KeyedValues is one key with its ordered values, the unit of the
// key->list text output
type KeyedValues struct {
	Key    string
	Values []string
}
