package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/services/config"
	"github.com/dylandoyle11/RedashETL/pkg/store/filesystem"
)

type fileFetcher struct {
	region  string
	pattern string
}

// NewFileFactory reads region exports from local CSV or XLSX files. The path
// may contain the {region}, {cadence}, {start} and {end} placeholders.
func NewFileFactory() Factory {
	return func(_ context.Context, region config.RegionConfig) (Fetcher, error) {
		if region.Path == "" {
			return nil, fmt.Errorf("region %s has no path", region.Name)
		}
		return &fileFetcher{region: region.Name, pattern: region.Path}, nil
	}
}

func (f *fileFetcher) Region() string {
	return f.region
}

func (f *fileFetcher) Fetch(_ context.Context, cadence domain.Cadence, dr domain.DateRange) (*domain.Table, error) {
	path := f.Path(cadence, dr)
	table, err := filesystem.ReadTable(path)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", f.region, err)
	}
	return table, nil
}

func (f *fileFetcher) Path(cadence domain.Cadence, dr domain.DateRange) string {
	return strings.NewReplacer(
		"{region}", f.region,
		"{cadence}", cadence.Title(),
		"{start}", dr.Start.Format(domain.DateLayout),
		"{end}", dr.End.Format(domain.DateLayout),
	).Replace(f.pattern)
}
