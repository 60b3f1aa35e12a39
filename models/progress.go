package models

import "math"

// The completion checklist. Each item weighs the same; the score is a coarse
// proxy shown on the dashboard, not the strict finalize validator.
const progressChecklistItems = 7

// CalculateProgress scores a draft 0-100 from however much of the document
// exists so far. It never errors: missing or partially-typed sections simply
// do not count.
func CalculateProgress(data *WillData) int {
	if data == nil {
		return 0
	}

	satisfied := 0
	if len(data.FullName) >= 2 {
		satisfied++
	}
	if data.DateOfBirth.Present {
		satisfied++
	}
	if data.Email != "" {
		satisfied++
	}
	if len(data.Phone) >= 10 {
		satisfied++
	}
	if data.Residency != "" {
		satisfied++
	}
	// one fully-described asset is enough to count the section
	for _, a := range data.Assets {
		if a.Complete() {
			satisfied++
			break
		}
	}
	if BeneficiariesComplete(data.Beneficiaries) {
		satisfied++
	}

	score := int(math.Round(100 * float64(satisfied) / float64(progressChecklistItems)))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
