package models

import (
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/wills_backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var strictValidate = validator.New()

// ValidateForFinalize runs the strict rule set over the whole document and
// returns every violation at once, keyed by field path, so the client can
// show the full remediation list. Returns nil when the document is complete.
//
// The rules mirror the progress checklist but apply unconditionally, and
// additionally check types and formats (dates must parse, values must be in
// bounds, asset categories must be known).
func ValidateForFinalize(data *WillData) *utils.ValidationError {
	verr := &utils.ValidationError{}
	if data == nil {
		verr.Add("data", "document is empty")
		return verr
	}

	if len(strings.TrimSpace(data.FullName)) < 2 {
		verr.Add("fullName", "full name is required (at least 2 characters)")
	}
	if !data.DateOfBirth.Present {
		verr.Add("dob", "date of birth is required")
	} else if !data.DateOfBirth.Valid {
		verr.Add("dob", "date of birth is not a valid date")
	}
	if data.Email == "" {
		verr.Add("email", "email is required")
	} else if err := strictValidate.Var(data.Email, "email"); err != nil {
		verr.Add("email", "email address is not valid")
	}
	validatePhone(verr, "phone", data.Phone, true)
	if strings.TrimSpace(data.Residency) == "" {
		verr.Add("residency", "country of residence is required")
	}

	if len(data.Assets) == 0 {
		verr.Add("assets", "at least one asset is required")
	}
	for i, a := range data.Assets {
		path := fmt.Sprintf("assets[%d]", i)
		if a == nil {
			verr.Add(path, "asset entry is empty")
			continue
		}
		if a.Type == "" {
			verr.Add(path+".type", "asset type is required")
		} else if !AssetType(a.Type).Known() {
			verr.Add(path+".type", "unknown asset type")
		}
		if len(strings.TrimSpace(a.Description)) < 10 {
			verr.Add(path+".description", "description must be at least 10 characters")
		}
		if !a.EstimatedValue.GreaterThan(decimal.Zero) {
			verr.Add(path+".estimatedValue", "estimated value must be greater than 0")
		}
	}

	if len(data.Beneficiaries) == 0 {
		verr.Add("beneficiaries", "at least one beneficiary is required")
	}
	sum := decimal.Zero
	for i, b := range data.Beneficiaries {
		path := fmt.Sprintf("beneficiaries[%d]", i)
		if b == nil {
			verr.Add(path, "beneficiary entry is empty")
			continue
		}
		if len(strings.TrimSpace(b.FullName)) < 2 {
			verr.Add(path+".fullName", "beneficiary name is required (at least 2 characters)")
		}
		if strings.TrimSpace(b.Relationship) == "" {
			verr.Add(path+".relationship", "relationship is required")
		}
		pct := b.Percentage.Decimal
		if pct.LessThan(decimal.NewFromInt(1)) || pct.GreaterThan(decimal.NewFromInt(100)) {
			verr.Add(path+".percentage", "percentage must be between 1 and 100")
		}
		sum = sum.Add(pct)
	}
	if len(data.Beneficiaries) > 0 && !sum.Equal(decimal.NewFromInt(100)) {
		verr.Add("beneficiaries", fmt.Sprintf("beneficiary shares must total exactly 100%%, got %s", sum.String()))
	}

	// Executors and instructions are optional sections; validate shape only
	// when provided.
	for i, e := range data.Executors {
		path := fmt.Sprintf("executors[%d]", i)
		if e == nil {
			verr.Add(path, "executor entry is empty")
			continue
		}
		if len(strings.TrimSpace(e.FullName)) < 2 {
			verr.Add(path+".fullName", "executor name is required (at least 2 characters)")
		}
		if strings.TrimSpace(e.Relationship) == "" {
			verr.Add(path+".relationship", "relationship is required")
		}
		if e.Phone != "" {
			validatePhone(verr, path+".phone", e.Phone, false)
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func validatePhone(verr *utils.ValidationError, path string, phone string, required bool) {
	if phone == "" {
		if required {
			verr.Add(path, "phone number is required")
		}
		return
	}
	if len(phone) < 10 {
		verr.Add(path, "phone number must be at least 10 digits")
		return
	}
	// Region-aware format check, enabled by deployment config.
	if region := strings.TrimSpace(os.Getenv("WILL_PHONE_REGION")); region != "" {
		if err := utils.ValidatePhoneNumber(phone, region); err != nil {
			verr.Add(path, "phone number is not valid")
		}
	}
}
