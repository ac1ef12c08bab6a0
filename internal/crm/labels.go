package crm

import (
	"strings"

	"github.com/northgate-advisors/intake-backend/internal/catalog"
)

// LabelDictionary maps form context to CRM lead label names.
type LabelDictionary interface {
	FormLabel(formName string) (string, bool)
	InterestLabel(token string) (string, bool)
}

// DetermineLabelNames picks the lead labels for a submission. Book
// Consultation maps every comma-separated interest token and drops the
// unmapped ones; any other known form gets its single form label; an
// unknown form gets none.
func DetermineLabelNames(formName, interestCategory string, dict LabelDictionary) []string {
	if formName == catalog.FormBookConsultation {
		seen := make(map[string]bool)
		var names []string
		for _, token := range strings.Split(interestCategory, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			label, ok := dict.InterestLabel(token)
			if !ok || seen[label] {
				continue
			}
			seen[label] = true
			names = append(names, label)
		}
		return names
	}

	if label, ok := dict.FormLabel(formName); ok {
		return []string{label}
	}
	return nil
}

// resolveLabelIDs matches label names case-insensitively against the
// labels defined in the CRM. Names with no CRM label are returned as
// missing.
func resolveLabelIDs(names []string, labels []LeadLabel) (ids []string, missing []string) {
	byName := make(map[string]string, len(labels))
	for _, l := range labels {
		byName[strings.ToLower(strings.TrimSpace(l.Name))] = l.ID
	}
	for _, name := range names {
		if id, ok := byName[strings.ToLower(name)]; ok {
			ids = append(ids, id)
		} else {
			missing = append(missing, name)
		}
	}
	return ids, missing
}
