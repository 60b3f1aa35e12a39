package models

import (
	"encoding/json"
	"testing"
)

func TestFlexDate_AcceptsCommonClientFormats(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string // yyyy-mm-dd of the parsed date
	}{
		{"iso date", `"1985-04-12"`, "1985-04-12"},
		{"rfc3339", `"1985-04-12T00:00:00Z"`, "1985-04-12"},
		{"datetime", `"1985-04-12 08:30:00"`, "1985-04-12"},
		{"day first", `"12/04/1985"`, "1985-04-12"},
		{"epoch seconds", `482112000`, "1985-04-12"},
		{"epoch millis", `482112000000`, "1985-04-12"},
	}
	for _, tc := range cases {
		var d FlexDate
		if err := json.Unmarshal([]byte(tc.in), &d); err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
			continue
		}
		if !d.Present || !d.Valid {
			t.Errorf("%s: got Present=%v Valid=%v, want both true", tc.name, d.Present, d.Valid)
			continue
		}
		if got := d.Time.Format("2006-01-02"); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestFlexDate_GarbageIsPresentButInvalid(t *testing.T) {
	for _, in := range []string{`"soon"`, `"1985-13-45"`, `true`, `{"y":1985}`} {
		var d FlexDate
		if err := json.Unmarshal([]byte(in), &d); err != nil {
			t.Errorf("%s: decoding must not fail, got %v", in, err)
			continue
		}
		if !d.Present || d.Valid {
			t.Errorf("%s: got Present=%v Valid=%v, want present and invalid", in, d.Present, d.Valid)
		}
	}
}

func TestFlexDate_AbsentValues(t *testing.T) {
	for _, in := range []string{`null`, `""`, `"   "`} {
		var d FlexDate
		if err := json.Unmarshal([]byte(in), &d); err != nil {
			t.Errorf("%s: unexpected error %v", in, err)
			continue
		}
		if d.Present {
			t.Errorf("%s: should decode as absent", in)
		}
	}
}

func TestFlexAmount_TolerantParsing(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`1200.5`, "1200.5"},
		{`"1,200.50"`, "1200.5"},
		{`"MMK 20,000"`, "20000"},
		{`"-1,234.50"`, "-1234.5"},
		{`null`, "0"},
		{`""`, "0"},
		{`"twenty"`, "0"},
		{`[1]`, "0"},
	}
	for _, tc := range cases {
		var a FlexAmount
		if err := json.Unmarshal([]byte(tc.in), &a); err != nil {
			t.Errorf("%s: decoding must not fail, got %v", tc.in, err)
			continue
		}
		if got := a.Decimal.String(); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestDecodeWillData_EmptyPayloads(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte(""), []byte("null"), []byte("{}")} {
		data, err := DecodeWillData(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", raw, err)
		}
		if data == nil {
			t.Fatalf("%q: want empty document, got nil", raw)
		}
	}
}

func TestDecodeWillData_PartiallyTypedDraft(t *testing.T) {
	raw := []byte(`{
		"fullName": "Aung",
		"dob": "next month",
		"assets": [{"type": "Property", "estimatedValue": "1,500,000"}]
	}`)
	data, err := DecodeWillData(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.FullName != "Aung" {
		t.Errorf("fullName: got %q", data.FullName)
	}
	if !data.DateOfBirth.Present || data.DateOfBirth.Valid {
		t.Errorf("dob: got Present=%v Valid=%v", data.DateOfBirth.Present, data.DateOfBirth.Valid)
	}
	if len(data.Assets) != 1 || data.Assets[0].EstimatedValue.String() != "1500000" {
		t.Errorf("assets decoded wrong: %+v", data.Assets)
	}
}

func TestDecodeWillData_MalformedJSONFails(t *testing.T) {
	if _, err := DecodeWillData([]byte(`{"fullName": `)); err == nil {
		t.Fatal("truncated JSON must fail decoding")
	}
	if _, err := DecodeWillData([]byte(`[1,2,3]`)); err == nil {
		t.Fatal("non-object payload must fail decoding")
	}
}

func TestBeneficiariesComplete(t *testing.T) {
	ok := []*Beneficiary{
		{FullName: "Su Su", Relationship: "Daughter", Percentage: flexAmountFromInt(50)},
		{FullName: "Mya Mya", Relationship: "Son", Percentage: flexAmountFromInt(50)},
	}
	if !BeneficiariesComplete(ok) {
		t.Error("50/50 split should be complete")
	}
	if BeneficiariesComplete(nil) {
		t.Error("empty list should be incomplete")
	}
	short := []*Beneficiary{{FullName: "S", Relationship: "Daughter", Percentage: flexAmountFromInt(100)}}
	if BeneficiariesComplete(short) {
		t.Error("single-character name should be incomplete")
	}
}
