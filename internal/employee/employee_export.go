package employee

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	employeeerrors "github.com/Abhinav7558/employee-management-system/internal/employee/errors"
	formtemplateerrors "github.com/Abhinav7558/employee-management-system/internal/formtemplate/errors"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const exportSheet = "Employees"

// Export renders every employee of one template as an xlsx workbook. The
// header row holds the field labels in template order.
func (s *service) Export(ctx context.Context, formTemplateID string) (*bytes.Buffer, string, error) {
	s.logger.Debug("export employees requested", zap.String("form_template_id", formTemplateID))

	if _, err := uuid.Parse(formTemplateID); err != nil {
		return nil, "", formtemplateerrors.ErrFormTemplateNotFound
	}

	tpl, err := s.templates.Definition(ctx, formTemplateID)
	if err != nil {
		s.logger.Warn("export employees template lookup failed",
			zap.String("form_template_id", formTemplateID),
			zap.Error(err),
		)
		return nil, "", err
	}

	empls, err := s.repo.ListByTemplate(ctx, formTemplateID)
	if err != nil {
		s.logger.Error("export employees query failed", zap.Error(err))
		return nil, "", mapRepositoryError(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		s.logger.Error("export employees sheet setup failed", zap.Error(err))
		return nil, "", employeeerrors.ErrExportFailed
	}

	header := make([]any, 0, len(tpl.Fields)+3)
	header = append(header, "Employee ID")
	for _, field := range tpl.Fields {
		header = append(header, field.FieldLabel)
	}
	header = append(header, "Active", "Created At")

	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		s.logger.Error("export employees header failed", zap.Error(err))
		return nil, "", employeeerrors.ErrExportFailed
	}
	if err := styleHeader(f, exportSheet, len(header)); err != nil {
		s.logger.Error("export employees header style failed", zap.Error(err))
		return nil, "", employeeerrors.ErrExportFailed
	}

	for i, e := range empls {
		byField := e.ValueByField()
		row := make([]any, 0, len(header))
		row = append(row, e.ID.String())
		for _, field := range tpl.Fields {
			row = append(row, byField[field.ID])
		}
		row = append(row, e.IsActive, e.CreatedAt.UTC().Format("2006-01-02 15:04:05"))

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			s.logger.Error("export employees row failed", zap.Int("row", i+2), zap.Error(err))
			return nil, "", employeeerrors.ErrExportFailed
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("export employees write failed", zap.Error(err))
		return nil, "", employeeerrors.ErrExportFailed
	}

	s.logger.Info("export employees success",
		zap.String("form_template_id", formTemplateID),
		zap.Int("rows", len(empls)),
	)
	return buf, exportFilename(tpl.Name), nil
}

// styleHeader bolds the first row and widens the used columns.
func styleHeader(f *excelize.File, sheet string, cols int) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 20)
}

func exportFilename(templateName string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(templateName))
	if name == "" {
		name = "form"
	}
	return fmt.Sprintf("%s_employees.xlsx", name)
}
