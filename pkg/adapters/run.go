package adapters

import (
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/models/api"
	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/models/store"
)

func MapStoreRunToDomain(r *store.Run) (*domain.Run, error) {
	if r == nil {
		return nil, nil
	}

	start, err := time.Parse(domain.DateLayout, r.PeriodStart)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(domain.DateLayout, r.PeriodEnd)
	if err != nil {
		return nil, err
	}

	return &domain.Run{
		ID:         r.ID,
		Cadence:    domain.Cadence(r.Cadence),
		Status:     domain.RunStatus(r.Status),
		Period:     domain.DateRange{Start: start, End: end},
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Artifact:   r.Artifact,
		Rows:       r.Rows,
		Matched:    r.Matched,
		Skipped:    r.Skipped,
		Error:      r.Error,
	}, nil
}

func MapDomainRunToStore(r *domain.Run) *store.Run {
	return &store.Run{
		ID:          r.ID,
		Cadence:     string(r.Cadence),
		Status:      string(r.Status),
		PeriodStart: r.Period.Start.Format(domain.DateLayout),
		PeriodEnd:   r.Period.End.Format(domain.DateLayout),
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Artifact:    r.Artifact,
		Rows:        r.Rows,
		Matched:     r.Matched,
		Skipped:     r.Skipped,
		Error:       r.Error,
	}
}

func MapDomainRunToAPI(r *domain.Run) api.Run {
	out := api.Run{
		ID:          r.ID,
		Cadence:     string(r.Cadence),
		Status:      string(r.Status),
		PeriodStart: r.Period.Start.Format(domain.DateLayout),
		PeriodEnd:   r.Period.End.Format(domain.DateLayout),
		StartedAt:   r.StartedAt.UTC().Format(time.RFC3339),
		Artifact:    r.Artifact,
		Rows:        r.Rows,
		Matched:     r.Matched,
		Skipped:     r.Skipped,
		Error:       r.Error,
	}
	if r.FinishedAt != nil {
		finished := r.FinishedAt.UTC().Format(time.RFC3339)
		out.FinishedAt = &finished
	}
	return out
}

func MapDomainPeriodToAPI(p domain.Period) api.Period {
	return api.Period{
		Cadence: string(p.Cadence),
		Title:   p.Cadence.Title(),
		AsOf:    p.AsOf.Format(domain.DateLayout),
		Start:   p.Range.Start.Format(domain.DateLayout),
		End:     p.Range.End.Format(domain.DateLayout),
		Days:    p.Range.Days(),
		Labels:  p.Labels,
	}
}
