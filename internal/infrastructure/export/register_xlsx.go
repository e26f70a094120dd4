package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/legal-approval/internal/application/port"
)

// Sheet layout for the approval register workbook
const (
	registerSheet = "Register"
	ledgerSheet   = "Ledger"
	dateLayout    = "2006-01-02"
	stampLayout   = "2006-01-02 15:04"
)

var registerHeader = []interface{}{
	"ID", "Form", "Title", "Requester", "Status", "Phase",
	"Assigned Officer", "Cycle", "Due Date", "Overdue", "Updated",
}

var ledgerHeader = []interface{}{
	"Submission ID", "Cycle", "Role", "Approver", "Email", "Status", "Action Date", "Comment",
}

// RegisterXLSXWriter writes the approval register as an xlsx workbook
type RegisterXLSXWriter struct {
	logger *zap.Logger
}

var _ port.RegisterWriter = (*RegisterXLSXWriter)(nil)

// NewRegisterXLSXWriter creates a new RegisterXLSXWriter
func NewRegisterXLSXWriter(logger *zap.Logger) *RegisterXLSXWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegisterXLSXWriter{logger: logger}
}

// Write renders one row per submission on the Register sheet and one row per
// first-level record on the Ledger sheet.
func (x *RegisterXLSXWriter) Write(ctx context.Context, w io.Writer, rows []port.RegisterRow, generatedAt time.Time) error {
	file := excelize.NewFile()
	defer file.Close()

	// NewFile ships with Sheet1; rename it instead of leaving an empty tab
	if err := file.SetSheetName("Sheet1", registerSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := file.NewSheet(ledgerSheet); err != nil {
		return fmt.Errorf("failed to create ledger sheet: %w", err)
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeader(file, registerSheet, registerHeader, headerStyle); err != nil {
		return err
	}
	if err := writeHeader(file, ledgerSheet, ledgerHeader, headerStyle); err != nil {
		return err
	}

	ledgerRow := 2
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if row.Submission == nil {
			continue
		}
		if err := x.fillRegisterRow(file, i+2, row); err != nil {
			return err
		}
		for _, rec := range row.Records {
			if err := x.fillLedgerRow(file, ledgerRow, rec.SubmissionID, rec.Cycle,
				string(rec.Role), rec.ApproverName, rec.ApproverEmail, rec.Status, rec.ActionDate, rec.Comment); err != nil {
				return err
			}
			ledgerRow++
		}
	}

	footer := fmt.Sprintf("A%d", len(rows)+3)
	if err := file.SetCellValue(registerSheet, footer, "Generated "+generatedAt.UTC().Format(stampLayout)+" UTC"); err != nil {
		return fmt.Errorf("failed to set footer: %w", err)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	x.logger.Info("Approval register written",
		zap.Int("submissions", len(rows)),
		zap.Int("ledger_rows", ledgerRow-2))
	return nil
}

func writeHeader(file *excelize.File, sheet string, header []interface{}, style int) error {
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := file.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (x *RegisterXLSXWriter) fillRegisterRow(file *excelize.File, rowNum int, row port.RegisterRow) error {
	sub := row.Submission

	officer := ""
	if sub.AssignedLegalOfficer != nil {
		officer = *sub.AssignedLegalOfficer
	}
	due := ""
	if sub.DueDate != nil {
		due = sub.DueDate.Format(dateLayout)
	}
	overdue := "No"
	if row.Overdue {
		overdue = "Yes"
	}

	values := []interface{}{
		sub.ID,
		row.FormName,
		sub.Title,
		sub.RequesterName,
		sub.Status,
		row.Phase,
		officer,
		sub.Cycle,
		due,
		overdue,
		sub.UpdatedAt.UTC().Format(stampLayout),
	}

	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := file.SetSheetRow(registerSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to set register row %d: %w", rowNum, err)
	}
	return nil
}

func (x *RegisterXLSXWriter) fillLedgerRow(file *excelize.File, rowNum int, submissionID int64, cycle int,
	role, name, email, status string, at *time.Time, comment string) error {
	actionDate := ""
	if at != nil {
		actionDate = at.UTC().Format(stampLayout)
	}

	values := []interface{}{submissionID, cycle, role, name, email, status, actionDate, comment}

	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := file.SetSheetRow(ledgerSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to set ledger row %d: %w", rowNum, err)
	}
	return nil
}
