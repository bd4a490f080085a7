package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
)

const yearlyMonths = 12

// ResolveDateRange computes the reporting window of a cadence relative to now.
func ResolveDateRange(cadence domain.Cadence, now time.Time) (domain.DateRange, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	first := today.AddDate(0, 0, 1-today.Day())

	switch cadence {
	case domain.CadenceYearly:
		return domain.DateRange{Start: first.AddDate(-1, 0, 0), End: first.AddDate(0, 0, -1)}, nil
	case domain.CadenceMonthly:
		return domain.DateRange{Start: first.AddDate(0, -1, 0), End: first.AddDate(0, 0, -1)}, nil
	case domain.CadenceWeekToDate:
		return domain.DateRange{Start: first, End: today}, nil
	}
	return domain.DateRange{}, fmt.Errorf("%w: %q", domain.ErrInvalidCadence, cadence)
}

// BuildPeriodLabels lists the month-year labels retained for a cadence whose
// window opens at start.
func BuildPeriodLabels(cadence domain.Cadence, start time.Time) ([]string, error) {
	var months int
	switch cadence {
	case domain.CadenceMonthly, domain.CadenceWeekToDate:
		months = 1
	case domain.CadenceYearly:
		months = yearlyMonths
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCadence, cadence)
	}

	labels := make([]string, 0, months)
	month, year := start.Month(), start.Year()
	for i := 0; i < months; i++ {
		labels = append(labels, PeriodLabel(month, year))
		if month == time.December {
			month, year = time.January, year+1
		} else {
			month++
		}
	}
	return labels, nil
}

// PeriodLabel formats a month-year filter key such as "Jan 2024".
func PeriodLabel(month time.Month, year int) string {
	return month.String()[:3] + " " + strconv.Itoa(year)
}

// ResolvePeriod resolves both the date range and the labels of a cadence.
func ResolvePeriod(cadence domain.Cadence, now time.Time) (domain.Period, error) {
	dr, err := ResolveDateRange(cadence, now)
	if err != nil {
		return domain.Period{}, err
	}
	labels, err := BuildPeriodLabels(cadence, dr.Start)
	if err != nil {
		return domain.Period{}, err
	}
	return domain.Period{
		Cadence: cadence,
		AsOf:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		Range:   dr,
		Labels:  labels,
	}, nil
}
