package models

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// WillData is the semi-structured body of a will. While drafting, every
// field is optional and partially-typed values are tolerated (FlexDate,
// FlexAmount); the strict validator decides when the document is complete.
type WillData struct {
	FullName      string         `json:"fullName"`
	DateOfBirth   FlexDate       `json:"dob"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	Residency     string         `json:"residency"`
	MaritalStatus string         `json:"maritalStatus,omitempty"`
	Assets        []*Asset       `json:"assets"`
	Beneficiaries []*Beneficiary `json:"beneficiaries"`
	Executors     []*Executor    `json:"executors,omitempty"`
	Instructions  *Instructions  `json:"instructions,omitempty"`
}

type Asset struct {
	Type           string     `json:"type"`
	Description    string     `json:"description"`
	EstimatedValue FlexAmount `json:"estimatedValue"`
	Location       string     `json:"location,omitempty"`
}

type Beneficiary struct {
	FullName     string     `json:"fullName"`
	Relationship string     `json:"relationship"`
	Percentage   FlexAmount `json:"percentage"`
	Contact      string     `json:"contact,omitempty"`
}

type Executor struct {
	FullName     string `json:"fullName"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone,omitempty"`
}

type Instructions struct {
	FuneralWishes     string `json:"funeralWishes,omitempty"`
	ResiduaryClause   string `json:"residuaryClause,omitempty"`
	GuardianForMinors string `json:"guardianForMinors,omitempty"`
}

// DecodeWillData decodes a draft payload. Empty/null payloads decode to an
// empty document. Field-level typing is handled by the tolerant types; only
// grossly malformed JSON errors here.
func DecodeWillData(raw []byte) (*WillData, error) {
	data := &WillData{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return data, nil
	}
	if err := json.Unmarshal(trimmed, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (d *WillData) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// Complete reports whether the asset alone satisfies the asset checklist
// item: a named category, a usable description, a positive value.
func (a *Asset) Complete() bool {
	if a == nil {
		return false
	}
	return a.Type != "" &&
		len(a.Description) >= 10 &&
		a.EstimatedValue.GreaterThan(decimal.Zero)
}

// Complete checks the per-entry beneficiary constraints. The cross-entry
// sum-to-100 rule lives in BeneficiariesComplete.
func (b *Beneficiary) Complete() bool {
	if b == nil {
		return false
	}
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	return len(b.FullName) >= 2 &&
		b.Relationship != "" &&
		b.Percentage.GreaterThanOrEqual(one) &&
		b.Percentage.LessThanOrEqual(hundred)
}

// BeneficiariesComplete is true when every entry is individually valid and
// the shares distribute the whole estate: the percentages must sum to
// exactly 100. 99 or 101 both leave the section incomplete.
func BeneficiariesComplete(list []*Beneficiary) bool {
	if len(list) == 0 {
		return false
	}
	sum := decimal.Zero
	for _, b := range list {
		if !b.Complete() {
			return false
		}
		sum = sum.Add(b.Percentage.Decimal)
	}
	return sum.Equal(decimal.NewFromInt(100))
}
