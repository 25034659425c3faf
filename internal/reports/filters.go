package reports

import (
	"errors"
	"strings"
	"time"
)

// NormalizeFormat maps accepted spellings onto csv, xlsx or pdf.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatExcel, "excel":
		return FormatExcel, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", errors.New("format must be csv, xlsx or pdf")
	}
}

// GetDateRange returns start and end for a preset relative to now, or for
// startStr/endStr ("2006-01-02") when dateRange is custom. DateRangeAll and
// an empty preset return zero times, meaning unbounded.
func GetDateRange(dateRange, startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	loc := now.Location()

	switch dateRange {
	case "", DateRangeAll:
		return time.Time{}, time.Time{}, nil
	case DateRangeDaily:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		return start, start.Add(24*time.Hour - time.Second), nil
	case DateRangeWeekly:
		// last 7 days including today
		end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, loc)
		start := time.Date(now.Year(), now.Month(), now.Day()-6, 0, 0, 0, 0, loc)
		return start, end, nil
	case DateRangeMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0).Add(-time.Second), nil
	case DateRangeYearly:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)
		return start, time.Date(now.Year(), 12, 31, 23, 59, 59, 0, loc), nil
	case DateRangeCustom:
		if startStr == "" || endStr == "" {
			return time.Time{}, time.Time{}, errors.New("start_date and end_date required for custom range")
		}
		start, err := time.ParseInLocation("2006-01-02", startStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := time.ParseInLocation("2006-01-02", endStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// include entire end day
		end = end.Add(24*time.Hour - time.Second)
		if start.After(end) {
			return time.Time{}, time.Time{}, errors.New("start_date must be before end_date")
		}
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, errors.New("unknown date_range " + dateRange)
	}
}
