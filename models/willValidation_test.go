package models

import (
	"strings"
	"testing"
)

func TestValidateForFinalize_CompleteDocumentPasses(t *testing.T) {
	if verr := ValidateForFinalize(completeWillData()); verr != nil {
		t.Fatalf("complete document: unexpected errors %v", verr.FieldErrors)
	}
}

func TestValidateForFinalize_EmptyDocumentListsEveryMissingField(t *testing.T) {
	verr := ValidateForFinalize(&WillData{})
	if verr == nil {
		t.Fatal("empty document passed strict validation")
	}
	for _, path := range []string{"fullName", "dob", "email", "phone", "residency", "assets", "beneficiaries"} {
		if len(verr.FieldErrors[path]) == 0 {
			t.Errorf("missing error for %q: %v", path, verr.FieldErrors)
		}
	}
}

func TestValidateForFinalize_FieldRules(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(d *WillData)
		wantPath string
	}{
		{
			name:     "single character name",
			mutate:   func(d *WillData) { d.FullName = "A" },
			wantPath: "fullName",
		},
		{
			name:     "unparseable date of birth",
			mutate:   func(d *WillData) { d.DateOfBirth = FlexDate{Present: true} },
			wantPath: "dob",
		},
		{
			name:     "malformed email",
			mutate:   func(d *WillData) { d.Email = "not-an-email" },
			wantPath: "email",
		},
		{
			name:     "short phone",
			mutate:   func(d *WillData) { d.Phone = "12345" },
			wantPath: "phone",
		},
		{
			name:     "unknown asset type",
			mutate:   func(d *WillData) { d.Assets[0].Type = "Spaceship" },
			wantPath: "assets[0].type",
		},
		{
			name:     "short asset description",
			mutate:   func(d *WillData) { d.Assets[0].Description = "house" },
			wantPath: "assets[0].description",
		},
		{
			name:     "zero asset value",
			mutate:   func(d *WillData) { d.Assets[0].EstimatedValue = FlexAmount{} },
			wantPath: "assets[0].estimatedValue",
		},
		{
			name:     "beneficiary share out of bounds",
			mutate:   func(d *WillData) { d.Beneficiaries[0].Percentage = flexAmountFromInt(0) },
			wantPath: "beneficiaries[0].percentage",
		},
		{
			name:     "executor without name",
			mutate:   func(d *WillData) { d.Executors = []*Executor{{Relationship: "Brother"}} },
			wantPath: "executors[0].fullName",
		},
	}
	for _, tc := range cases {
		data := completeWillData()
		tc.mutate(data)
		verr := ValidateForFinalize(data)
		if verr == nil {
			t.Errorf("%s: expected validation failure", tc.name)
			continue
		}
		if len(verr.FieldErrors[tc.wantPath]) == 0 {
			t.Errorf("%s: no error at %q; got %v", tc.name, tc.wantPath, verr.FieldErrors)
		}
	}
}

func TestValidateForFinalize_SharesMustTotalExactly100(t *testing.T) {
	data := completeWillData()
	data.Beneficiaries[1].Percentage = flexAmountFromInt(39) // 60 + 39

	verr := ValidateForFinalize(data)
	if verr == nil {
		t.Fatal("expected validation failure for 99% total")
	}
	msgs := verr.FieldErrors["beneficiaries"]
	if len(msgs) == 0 {
		t.Fatalf("no error at beneficiaries: %v", verr.FieldErrors)
	}
	if !strings.Contains(msgs[0], "99") {
		t.Errorf("share total message should name the actual sum, got %q", msgs[0])
	}
}

func TestValidateForFinalize_CollectsAllViolationsAtOnce(t *testing.T) {
	data := completeWillData()
	data.FullName = ""
	data.Email = "broken"
	data.Assets[0].Description = "tv"

	verr := ValidateForFinalize(data)
	if verr == nil {
		t.Fatal("expected validation failure")
	}
	if len(verr.FieldErrors) < 3 {
		t.Fatalf("expected all violations in one pass, got %v", verr.FieldErrors)
	}
}

// A draft the progress score calls done must survive strict validation;
// otherwise the dashboard shows 100% on a document that cannot finalize.
func TestProgress100ImpliesStrictValidationPasses(t *testing.T) {
	data := completeWillData()
	if got := CalculateProgress(data); got != 100 {
		t.Fatalf("fixture should score 100, got %d", got)
	}
	if verr := ValidateForFinalize(data); verr != nil {
		t.Fatalf("100%% document failed strict validation: %v", verr.FieldErrors)
	}
}
