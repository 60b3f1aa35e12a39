package reports

import (
	"fmt"

	"bitbucket.org/mmdatafocus/wills_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// BuildEstateSummaryWorkbook lays out the draft's assets and beneficiary
// shares as a spreadsheet the user can review offline or hand to an advisor.
func BuildEstateSummaryWorkbook(will *models.Will) (*excelize.File, error) {

	data, err := will.DecodedData()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Estate Summary"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheetName, "A1", will.DisplayName())
	f.SetCellValue(sheetName, "A2", "Owner")
	f.SetCellValue(sheetName, "B2", data.FullName)
	f.SetCellValue(sheetName, "A3", "Residency")
	f.SetCellValue(sheetName, "B3", data.Residency)
	f.SetCellValue(sheetName, "A4", "Progress")
	f.SetCellValue(sheetName, "B4", fmt.Sprintf("%d%%", models.CalculateProgress(data)))

	// Assets block
	row := 6
	f.SetCellValue(sheetName, "A"+fmt.Sprint(row), "Assets")
	row++
	f.SetCellValue(sheetName, "A"+fmt.Sprint(row), "Type")
	f.SetCellValue(sheetName, "B"+fmt.Sprint(row), "Description")
	f.SetCellValue(sheetName, "C"+fmt.Sprint(row), "EstimatedValue")
	f.SetCellValue(sheetName, "D"+fmt.Sprint(row), "Location")
	total := decimal.Zero
	for _, a := range data.Assets {
		if a == nil {
			continue
		}
		row++
		f.SetCellValue(sheetName, "A"+fmt.Sprint(row), a.Type)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(row), a.Description)
		f.SetCellValue(sheetName, "C"+fmt.Sprint(row), a.EstimatedValue.String())
		f.SetCellValue(sheetName, "D"+fmt.Sprint(row), a.Location)
		total = total.Add(a.EstimatedValue.Decimal)
	}
	row++
	f.SetCellValue(sheetName, "B"+fmt.Sprint(row), "Total")
	f.SetCellValue(sheetName, "C"+fmt.Sprint(row), total.String())

	// Beneficiaries block
	row += 2
	f.SetCellValue(sheetName, "A"+fmt.Sprint(row), "Beneficiaries")
	row++
	f.SetCellValue(sheetName, "A"+fmt.Sprint(row), "Name")
	f.SetCellValue(sheetName, "B"+fmt.Sprint(row), "Relationship")
	f.SetCellValue(sheetName, "C"+fmt.Sprint(row), "Share")
	for _, b := range data.Beneficiaries {
		if b == nil {
			continue
		}
		row++
		f.SetCellValue(sheetName, "A"+fmt.Sprint(row), b.FullName)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(row), b.Relationship)
		f.SetCellValue(sheetName, "C"+fmt.Sprint(row), b.Percentage.String()+"%")
	}

	return f, nil
}
