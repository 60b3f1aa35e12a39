package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type WillStatus string

const (
	WillStatusDraft     WillStatus = "Draft"
	WillStatusPaid      WillStatus = "Paid"
	WillStatusCompleted WillStatus = "Completed"
)

// Editable reports whether the save/update path may touch the document.
// Paid and Completed are both terminal with respect to edits.
func (s WillStatus) Editable() bool {
	return s == WillStatusDraft
}

// Finalizable reports whether the document may transition to Completed.
// Paying first and exporting after is the normal product flow, so Paid
// documents can still be finalized; Completed never transitions again.
func (s WillStatus) Finalizable() bool {
	return s == WillStatusDraft || s == WillStatusPaid
}

func (s *WillStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("will status must be string")
	}
	switch str {
	case "Draft":
		*s = WillStatusDraft
	case "Paid":
		*s = WillStatusPaid
	case "Completed":
		*s = WillStatusCompleted
	default:
		return errors.New("invalid will status")
	}
	return nil
}

// Value implements the driver.Valuer interface
func (s WillStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan implements the sql.Scanner interface
func (s *WillStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = WillStatus(v)
	case []byte:
		*s = WillStatus(v)
	default:
		return fmt.Errorf("cannot convert %T to WillStatus", value)
	}
	return nil
}

type AssetType string

const (
	AssetTypeProperty    AssetType = "Property"
	AssetTypeVehicle     AssetType = "Vehicle"
	AssetTypeBankAccount AssetType = "BankAccount"
	AssetTypeInvestment  AssetType = "Investment"
	AssetTypeBusiness    AssetType = "Business"
	AssetTypePersonal    AssetType = "Personal"
	AssetTypeOther       AssetType = "Other"
)

var assetTypes = map[AssetType]bool{
	AssetTypeProperty:    true,
	AssetTypeVehicle:     true,
	AssetTypeBankAccount: true,
	AssetTypeInvestment:  true,
	AssetTypeBusiness:    true,
	AssetTypePersonal:    true,
	AssetTypeOther:       true,
}

func (t AssetType) Known() bool {
	return assetTypes[t]
}

// Date layouts drafts arrive in. Browsers send ISO strings, older clients
// send locale dates, mobile sends epoch millis.
var flexDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"01/02/2006",
}

// FlexDate is a date field of the draft payload. Drafts must tolerate
// whatever typing the client produced, so decoding never fails: an
// unparseable value is kept as present-but-invalid and only the strict
// validator rejects it.
type FlexDate struct {
	Time    time.Time
	Present bool
	Valid   bool
}

func (d *FlexDate) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*d = FlexDate{}
		return nil
	}

	// epoch seconds or milliseconds
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		i, err := n.Int64()
		if err == nil {
			if i > 1e12 {
				i = i / 1000
			}
			*d = FlexDate{Time: time.Unix(i, 0).UTC(), Present: true, Valid: true}
			return nil
		}
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		// Unexpected shape (object, array). Record presence, let strict
		// validation flag it.
		*d = FlexDate{Present: true}
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = FlexDate{}
		return nil
	}
	for _, layout := range flexDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = FlexDate{Time: t, Present: true, Valid: true}
			return nil
		}
	}
	*d = FlexDate{Present: true}
	return nil
}

func (d FlexDate) MarshalJSON() ([]byte, error) {
	if !d.Present || !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format("2006-01-02"))
}

// FlexAmount is a monetary or percentage field of the draft payload.
// Accepts JSON numbers, plain numeric strings, and user-formatted strings
// ("20,000", "MMK 20,000"). Decoding never fails; garbage decodes to zero.
type FlexAmount struct {
	decimal.Decimal
}

func (a *FlexAmount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		if d, derr := decimal.NewFromString(n.String()); derr == nil {
			a.Decimal = d
			return nil
		}
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = parseFormattedAmount(s)
	return nil
}

func (a FlexAmount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// parseFormattedAmount accepts common user-formatted strings like
// "20,000", "MMK 20,000", "-1,234.50". Keeps digits, '.', and a leading '-'.
func parseFormattedAmount(v string) decimal.Decimal {
	s := strings.TrimSpace(v)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, ",", "")

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.Zero
	}
	if neg {
		clean = "-" + clean
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero
	}
	return d
}
