package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// ReportExporter renders report data in one of the supported formats.
type ReportExporter interface {
	Export(reportType, format string, data ReportData) (*ExportResult, error)
}

type reportExporter struct {
	now func() time.Time
}

func NewReportExporter() ReportExporter {
	return &reportExporter{now: time.Now}
}

// table is the format-neutral shape every report is flattened into.
type table struct {
	title   string
	sheet   string
	headers []string
	widths  []float64 // PDF column widths in mm
	rows    [][]string
}

func (e *reportExporter) Export(reportType, format string, data ReportData) (*ExportResult, error) {
	var t table
	switch reportType {
	case ReportTypeMembers:
		t = membersTable(data)
	case ReportTypeAuditLogs:
		t = auditLogsTable(data)
	default:
		return nil, fmt.Errorf("unsupported report type: %s", reportType)
	}

	base := fmt.Sprintf("%s_%s", reportType, e.now().Format("20060102_150405"))

	switch format {
	case FormatCSV:
		b, err := t.csv()
		if err != nil {
			return nil, err
		}
		return &ExportResult{Data: b, Filename: base + ".csv", ContentType: "text/csv"}, nil
	case FormatExcel:
		b, err := t.excel()
		if err != nil {
			return nil, err
		}
		return &ExportResult{Data: b, Filename: base + ".xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}, nil
	case FormatPDF:
		b, err := t.pdf()
		if err != nil {
			return nil, err
		}
		return &ExportResult{Data: b, Filename: base + ".pdf", ContentType: "application/pdf"}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

//// ============================
/// ROW BUILDERS
//// ============================

func membersTable(data ReportData) table {
	t := table{
		title:   "Members: " + data.EventTitle,
		sheet:   "Members",
		headers: []string{"User ID", "Name", "Username", "Email", "Status", "Joined Via", "Memo", "Joined At"},
		widths:  []float64{30, 35, 28, 45, 20, 22, 60, 30},
	}
	for _, m := range data.Members {
		username := ""
		if m.Username != nil {
			username = *m.Username
		}
		t.rows = append(t.rows, []string{
			m.UserID,
			m.FullName,
			username,
			m.Email,
			m.Status,
			m.JoinSource,
			m.Memo,
			m.JoinedAt.UTC().Format(timestampLayout),
		})
	}
	return t
}

func auditLogsTable(data ReportData) table {
	t := table{
		title:   "Audit Log: " + data.EventTitle,
		sheet:   "Audit Logs",
		headers: []string{"ID", "User", "Action", "Status", "IP Address", "Timestamp", "Details"},
		widths:  []float64{14, 35, 45, 20, 30, 30, 96},
	}
	for _, l := range data.AuditLogs {
		t.rows = append(t.rows, []string{
			fmt.Sprint(l.ID),
			l.UserName,
			l.Action,
			l.Status,
			l.IPAddress,
			l.Timestamp.UTC().Format(timestampLayout),
			l.Details,
		})
	}
	return t
}

//// ============================
/// RENDERERS
//// ============================

func (t table) csv() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.headers); err != nil {
		return nil, err
	}
	for _, r := range t.rows {
		if err := w.Write(r); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t table) excel() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", t.sheet); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, h := range t.headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(t.sheet, cell, h); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(t.headers), 1)
	if err := f.SetCellStyle(t.sheet, "A1", lastHeader, style); err != nil {
		return nil, err
	}

	for r, row := range t.rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(t.sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TODO: embed a UTF-8 TTF (e.g. Noto Sans KR) via AddUTF8Font so Hangul names render in PDFs.
func (t table) pdf() ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, tr(t.title))
	pdf.Ln(14)

	pdf.SetFont("Arial", "B", 9)
	for i, h := range t.headers {
		pdf.CellFormat(t.widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range t.rows {
		for i, v := range row {
			pdf.CellFormat(t.widths[i], 6, tr(truncate(v, t.widths[i])), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// truncate keeps a cell roughly inside its column at 8pt.
func truncate(s string, width float64) string {
	max := int(width / 1.6)
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max || max < 4 {
		return string(r)
	}
	return string(r[:max-3]) + "..."
}
