package model

// Category is the fixed classification of a rule-management object
type Category int

const (
	Unclassified      Category = iota // Not one of the tracked categories
	Conclusion                        // "Conclusie"
	Notification                      // "Melding"
	PermitApplication                 // "Aanvraag vergunning"
	Information                       // "Informatie"
)

// Category labels as they appear in the API
const (
	LabelConclusion        = "Conclusie"
	LabelNotification      = "Melding"
	LabelPermitApplication = "Aanvraag vergunning"
	LabelInformation       = "Informatie"

	// LabelSubmissionRequirement marks objects whose real category sits in
	// the nested permission value
	LabelSubmissionRequirement = "Indieningsvereisten"

	// LabelNull is the sentinel the API uses for an object without a category
	LabelNull = "null"
)

// CategoryFromLabel maps an effective type label to its category
func CategoryFromLabel(label string) Category {
	switch label {
	case LabelConclusion:
		return Conclusion
	case LabelNotification:
		return Notification
	case LabelPermitApplication:
		return PermitApplication
	case LabelInformation:
		return Information
	default:
		return Unclassified
	}
}

func (c Category) String() string {
	switch c {
	case Conclusion:
		return LabelConclusion
	case Notification:
		return LabelNotification
	case PermitApplication:
		return LabelPermitApplication
	case Information:
		return LabelInformation
	default:
		return "unclassified"
	}
}

// ChangeVector holds the last-change date per category for one activity.
// An empty string means no value was recorded for that category.
type ChangeVector struct {
	Conclusion        string
	Notification      string
	PermitApplication string
	Information       string
}

// Set overwrites the slot for the given category. Unclassified is a no-op.
// It reports whether a slot was written.
func (v *ChangeVector) Set(c Category, date string) bool {
	switch c {
	case Conclusion:
		v.Conclusion = date
	case Notification:
		v.Notification = date
	case PermitApplication:
		v.PermitApplication = date
	case Information:
		v.Information = date
	default:
		return false
	}
	return true
}

// Slots returns the vector in the fixed column order
func (v ChangeVector) Slots() [4]string {
	return [4]string{v.Conclusion, v.Notification, v.PermitApplication, v.Information}
}

// RowWidth is the number of cells in an output row
const RowWidth = 9

// RowHeader names the output columns
var RowHeader = [RowWidth]string{
	"Naam", "URI", "Activiteitengroep", "Regelreferentie", "Werkzaamheden",
	LabelConclusion, LabelNotification, LabelPermitApplication, LabelInformation,
}

// OutputRow is the flat per-activity record handed to the row writer
type OutputRow struct {
	Name          string
	URI           string
	Group         string
	RuleReference string
	WorkItems     string // Comma-separated work-item identifiers, empty if none
	Changes       ChangeVector
}

// Fields returns the row cells in column order
func (r OutputRow) Fields() []string {
	slots := r.Changes.Slots()
	return []string{
		r.Name, r.URI, r.Group, r.RuleReference, r.WorkItems,
		slots[0], slots[1], slots[2], slots[3],
	}
}
