package domain

import (
	"fmt"
	"strings"
)

type Cadence string

const (
	CadenceYearly     Cadence = "Y"
	CadenceMonthly    Cadence = "M"
	CadenceWeekToDate Cadence = "W"
)

// Cadences lists every supported cadence in the order reports are produced.
func Cadences() []Cadence {
	return []Cadence{CadenceYearly, CadenceMonthly, CadenceWeekToDate}
}

// ParseCadence accepts a cadence code (Y, M, W), its long name or its report title.
func ParseCadence(s string) (Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yearly":
		return CadenceYearly, nil
	case "m", "monthly":
		return CadenceMonthly, nil
	case "w", "mtd", "weektodate", "week-to-date":
		return CadenceWeekToDate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCadence, s)
}

func (c Cadence) Valid() bool {
	switch c {
	case CadenceYearly, CadenceMonthly, CadenceWeekToDate:
		return true
	}
	return false
}

// Title is the name used for templates and report files.
func (c Cadence) Title() string {
	switch c {
	case CadenceYearly:
		return "Yearly"
	case CadenceMonthly:
		return "Monthly"
	case CadenceWeekToDate:
		return "MTD"
	}
	return string(c)
}

func (c Cadence) String() string {
	return string(c)
}
