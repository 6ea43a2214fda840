package enums

import (
	"fmt"
	"time"
)

// ReportRange is the time window a dashboard or report aggregates over.
type ReportRange string

const (
	ReportRange7d  ReportRange = "7d"
	ReportRange30d ReportRange = "30d"
	ReportRange90d ReportRange = "90d"
	ReportRangeAll ReportRange = "all"
)

var validReportRanges = []ReportRange{
	ReportRange7d,
	ReportRange30d,
	ReportRange90d,
	ReportRangeAll,
}

func (r ReportRange) IsValid() bool {
	for _, candidate := range validReportRanges {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReportRange accepts the canonical values; empty means 30d.
func ParseReportRange(value string) (ReportRange, error) {
	if value == "" {
		return ReportRange30d, nil
	}
	for _, candidate := range validReportRanges {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report range %q", value)
}

// Since returns the start of the window ending at now; zero for "all".
func (r ReportRange) Since(now time.Time) time.Time {
	switch r {
	case ReportRange7d:
		return now.AddDate(0, 0, -7)
	case ReportRange30d:
		return now.AddDate(0, 0, -30)
	case ReportRange90d:
		return now.AddDate(0, 0, -90)
	case ReportRangeAll:
		return time.Time{}
	}
	return time.Time{}
}
