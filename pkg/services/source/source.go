package source

import (
	"context"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
)

const (
	KindRedash = "redash"
	KindFile   = "file"
)

// Fetcher returns the raw export of one region for a reporting period.
type Fetcher interface {
	Region() string
	Fetch(ctx context.Context, cadence domain.Cadence, dr domain.DateRange) (*domain.Table, error)
}
