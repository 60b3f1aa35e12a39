package workflow

import (
	"bytes"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/wills_backend/models"
	"github.com/go-pdf/fpdf"
)

// RenderWillPDF lays out the finalized will as an A4 document. The data
// passed in has already gone through strict validation, so every section
// here can assume its fields are present.
func RenderWillPDF(will *models.Will, data *models.WillData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(will.DisplayName(), true)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Last Will and Testament", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("of %s", data.FullName), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	writeSectionHeader(pdf, "Testator")
	writeKeyValue(pdf, "Full name", data.FullName)
	if data.DateOfBirth.Valid {
		writeKeyValue(pdf, "Date of birth", data.DateOfBirth.Time.Format("2 January 2006"))
	}
	writeKeyValue(pdf, "Email", data.Email)
	writeKeyValue(pdf, "Phone", data.Phone)
	writeKeyValue(pdf, "Country of residence", data.Residency)
	if data.MaritalStatus != "" {
		writeKeyValue(pdf, "Marital status", data.MaritalStatus)
	}
	pdf.Ln(4)

	writeSectionHeader(pdf, "Assets")
	for i, asset := range data.Assets {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("%d. %s", i+1, asset.Type), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, asset.Description, "", "L", false)
		line := fmt.Sprintf("Estimated value: %s", asset.EstimatedValue.Decimal.StringFixed(2))
		if asset.Location != "" {
			line += fmt.Sprintf("  |  Location: %s", asset.Location)
		}
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	pdf.Ln(2)

	writeSectionHeader(pdf, "Beneficiaries")
	for i, b := range data.Beneficiaries {
		entry := fmt.Sprintf("%d. %s (%s) - %s%% of the estate", i+1, b.FullName, b.Relationship, b.Percentage.Decimal.String())
		if b.Contact != "" {
			entry += fmt.Sprintf("  |  Contact: %s", b.Contact)
		}
		pdf.MultiCell(0, 6, entry, "", "L", false)
	}
	pdf.Ln(2)

	if len(data.Executors) > 0 {
		writeSectionHeader(pdf, "Executors")
		for i, e := range data.Executors {
			entry := fmt.Sprintf("%d. %s (%s)", i+1, e.FullName, e.Relationship)
			if e.Phone != "" {
				entry += fmt.Sprintf("  |  Phone: %s", e.Phone)
			}
			pdf.CellFormat(0, 6, entry, "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}

	if data.Instructions != nil {
		writeSectionHeader(pdf, "Instructions")
		if data.Instructions.FuneralWishes != "" {
			writeKeyValue(pdf, "Funeral wishes", "")
			pdf.MultiCell(0, 5, data.Instructions.FuneralWishes, "", "L", false)
		}
		if data.Instructions.ResiduaryClause != "" {
			writeKeyValue(pdf, "Residuary estate", "")
			pdf.MultiCell(0, 5, data.Instructions.ResiduaryClause, "", "L", false)
		}
		if data.Instructions.GuardianForMinors != "" {
			writeKeyValue(pdf, "Guardian for minor children", data.Instructions.GuardianForMinors)
		}
		pdf.Ln(2)
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated on %s.", time.Now().UTC().Format("2 January 2006 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Document reference: WILL-%d", will.ID), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSectionHeader(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 10)
}

func writeKeyValue(pdf *fpdf.Fpdf, key string, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(55, 6, key, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}
