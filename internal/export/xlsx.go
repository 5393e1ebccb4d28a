package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fieldsync/internal/domain"
)

const SheetName = "Reports"

var columns = []string{
	"Client Name",
	"Contact Person",
	"Contact Phone",
	"Visit Date",
	"Status",
	"State",
	"Local Government",
	"Town",
	"Address",
	"Service Type",
	"Latitude",
	"Longitude",
	"Notes",
	"Images",
	"Sync State",
	"Server ID",
	"Updated At",
}

func row(r *domain.Report) []interface{} {
	serverID, _ := r.RemoteID()
	syncState := "Saved on device"
	if r.SyncState == domain.SyncStateSynced {
		syncState = "Synced"
	}
	return []interface{}{
		r.ClientName,
		r.ContactPerson,
		r.ContactPhone,
		r.VisitDate,
		string(r.Status),
		r.State,
		r.LocalGovernment,
		r.Town,
		r.ClientAddress,
		r.ServiceType,
		r.Latitude,
		r.Longitude,
		r.Notes,
		len(r.Images),
		syncState,
		serverID,
		r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// FileName is the suggested download name for a product's export.
func FileName(product domain.Product, at time.Time) string {
	name := strings.ToLower(strings.ReplaceAll(product.Name, " ", "-"))
	return fmt.Sprintf("%s-reports-%s.xlsx", name, at.UTC().Format("20060102"))
}

// WriteReports writes the reports as a single-sheet workbook, one row per
// report under a header row.
func WriteReports(w io.Writer, reports []*domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range reports {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row(r)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
