package reports

import (
	"time"
)

const (
	ReportTypeMembers   = "members"
	ReportTypeAuditLogs = "audit-logs"

	// Date range presets for audit exports
	DateRangeDaily   = "daily"
	DateRangeWeekly  = "weekly"
	DateRangeMonthly = "monthly"
	DateRangeYearly  = "yearly"
	DateRangeCustom  = "custom"
	DateRangeAll     = "all"

	FormatCSV   = "csv"
	FormatExcel = "xlsx"
	FormatPDF   = "pdf"
)

const timestampLayout = "2006-01-02 15:04"

// MemberReportRow is one roster line.
type MemberReportRow struct {
	UserID     string
	FullName   string
	Username   *string
	Email      string
	Status     string
	JoinSource string
	Memo       string
	JoinedAt   time.Time
}

// AuditLogReportRow is one audit line of an event.
type AuditLogReportRow struct {
	ID        uint
	UserName  string
	Action    string
	Status    string
	IPAddress string
	Details   string
	Timestamp time.Time
}

// ReportData carries whichever rows the report type needs.
type ReportData struct {
	EventTitle string
	Members    []MemberReportRow
	AuditLogs  []AuditLogReportRow
}

// ExportResult is a rendered file ready to stream.
type ExportResult struct {
	Data        []byte
	Filename    string
	ContentType string
}
