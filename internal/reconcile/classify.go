package reconcile

import "github.com/ppiankov/rtrarchive/internal/model"

// Classification is the outcome of classifying one rule-management object
type Classification struct {
	Category               model.Category
	Label                  string // Effective type label, used for archive keys
	FunctionalStructureRef string
}

// Classify determines the effective label and category of obj. A
// submission-requirement object takes its label from the nested permission
// value; an absent or null permission value yields model.LabelNull.
func Classify(obj model.RuleManagementObject) Classification {
	label := obj.Type
	if label == model.LabelSubmissionRequirement {
		label = model.LabelNull
		if obj.Permission != nil && obj.Permission.Value != nil {
			label = *obj.Permission.Value
		}
	}

	return Classification{
		Category:               model.CategoryFromLabel(label),
		Label:                  label,
		FunctionalStructureRef: obj.FunctionalStructureRef,
	}
}
