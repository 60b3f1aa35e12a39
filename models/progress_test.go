package models

import (
	"encoding/json"
	"testing"
	"time"
)

func completeWillData() *WillData {
	return &WillData{
		FullName:    "Aung Kyaw Moe",
		DateOfBirth: FlexDate{Time: time.Date(1980, 5, 4, 0, 0, 0, 0, time.UTC), Present: true, Valid: true},
		Email:       "aung@example.com",
		Phone:       "0912345678",
		Residency:   "Myanmar",
		Assets: []*Asset{
			{
				Type:           string(AssetTypeProperty),
				Description:    "Two-storey house on Inya Road, Yangon",
				EstimatedValue: flexAmountFromInt(250000),
			},
		},
		Beneficiaries: []*Beneficiary{
			{FullName: "Su Su", Relationship: "Daughter", Percentage: flexAmountFromInt(60)},
			{FullName: "Mya Mya", Relationship: "Son", Percentage: flexAmountFromInt(40)},
		},
	}
}

func flexAmountFromInt(n int64) FlexAmount {
	var a FlexAmount
	if err := json.Unmarshal([]byte(jsonNumber(n)), &a); err != nil {
		panic(err)
	}
	return a
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestCalculateProgress_EmptyDocument(t *testing.T) {
	if got := CalculateProgress(nil); got != 0 {
		t.Fatalf("nil document: got %d, want 0", got)
	}
	if got := CalculateProgress(&WillData{}); got != 0 {
		t.Fatalf("empty document: got %d, want 0", got)
	}
}

func TestCalculateProgress_CompleteDocument(t *testing.T) {
	if got := CalculateProgress(completeWillData()); got != 100 {
		t.Fatalf("complete document: got %d, want 100", got)
	}
}

// Two of seven checklist items (name and date of birth) round to 29.
func TestCalculateProgress_PartialDocument(t *testing.T) {
	data := &WillData{
		FullName:    "Jo",
		DateOfBirth: FlexDate{Time: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), Present: true, Valid: true},
		Email:       "",
		Phone:       "12345",
		Residency:   "",
	}
	if got := CalculateProgress(data); got != 29 {
		t.Fatalf("partial document: got %d, want 29", got)
	}
}

func TestCalculateProgress_Rounding(t *testing.T) {
	// Scores for k satisfied items out of 7, half-up rounding.
	wantByItems := []int{0, 14, 29, 43, 57, 71, 86, 100}

	builders := []func(d *WillData){
		func(d *WillData) { d.FullName = "Aung Kyaw" },
		func(d *WillData) { d.DateOfBirth = FlexDate{Time: time.Now(), Present: true, Valid: true} },
		func(d *WillData) { d.Email = "a@example.com" },
		func(d *WillData) { d.Phone = "0912345678" },
		func(d *WillData) { d.Residency = "Myanmar" },
		func(d *WillData) {
			d.Assets = []*Asset{{
				Type:           string(AssetTypeVehicle),
				Description:    "2018 Toyota Probox, plate 9K-1234",
				EstimatedValue: flexAmountFromInt(8000),
			}}
		},
		func(d *WillData) {
			d.Beneficiaries = []*Beneficiary{{FullName: "Su Su", Relationship: "Daughter", Percentage: flexAmountFromInt(100)}}
		},
	}

	data := &WillData{}
	for k := 0; k <= len(builders); k++ {
		if got := CalculateProgress(data); got != wantByItems[k] {
			t.Errorf("%d items: got %d, want %d", k, got, wantByItems[k])
		}
		if k < len(builders) {
			builders[k](data)
		}
	}
}

func TestCalculateProgress_IncompleteSectionsDoNotCount(t *testing.T) {
	cases := []struct {
		name string
		data *WillData
	}{
		{
			name: "asset with short description",
			data: &WillData{Assets: []*Asset{{
				Type:           string(AssetTypeProperty),
				Description:    "house",
				EstimatedValue: flexAmountFromInt(100),
			}}},
		},
		{
			name: "asset with zero value",
			data: &WillData{Assets: []*Asset{{
				Type:        string(AssetTypeProperty),
				Description: "Two-storey house on Inya Road",
			}}},
		},
		{
			name: "beneficiary shares under 100",
			data: &WillData{Beneficiaries: []*Beneficiary{
				{FullName: "Su Su", Relationship: "Daughter", Percentage: flexAmountFromInt(99)},
			}},
		},
		{
			name: "beneficiary shares over 100",
			data: &WillData{Beneficiaries: []*Beneficiary{
				{FullName: "Su Su", Relationship: "Daughter", Percentage: flexAmountFromInt(60)},
				{FullName: "Mya Mya", Relationship: "Son", Percentage: flexAmountFromInt(41)},
			}},
		},
		{
			name: "no beneficiaries",
			data: &WillData{Beneficiaries: []*Beneficiary{}},
		},
	}
	for _, tc := range cases {
		if got := CalculateProgress(tc.data); got != 0 {
			t.Errorf("%s: got %d, want 0", tc.name, got)
		}
	}
}

// Whatever decodes from a draft payload must score without panicking.
func TestCalculateProgress_ArbitraryDecodedInput(t *testing.T) {
	payloads := []string{
		`{}`,
		`{"fullName": 42, "dob": "not a date", "assets": "nope"}`,
		`{"assets": [{}, {"estimatedValue": "MMK twenty"}], "beneficiaries": [null]}`,
		`{"dob": 1234567890123, "beneficiaries": [{"percentage": "101%"}]}`,
	}
	for _, p := range payloads {
		data, err := DecodeWillData([]byte(p))
		if err != nil {
			// grossly malformed shapes are rejected upstream
			continue
		}
		got := CalculateProgress(data)
		if got < 0 || got > 100 {
			t.Errorf("payload %s: score %d out of range", p, got)
		}
	}
}
