package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/runtime/terminal/export"
	"github.com/dylandoyle11/RedashETL/pkg/services/config"
	"github.com/dylandoyle11/RedashETL/pkg/services/workflow"
)

// OpenFunc wires a report controller from a loaded configuration.
type OpenFunc func(ctx context.Context, cfg *config.Config, profilesPath string) (workflow.Controller, io.Closer, error)

// Env is shared by all commands; the path fields are bound to root flags.
type Env struct {
	ConfigPath   string
	ProfilesPath string
	Reporter     *export.Reporter
	Open         OpenFunc
	Now          func() time.Time
}

func (e *Env) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(e.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// AsOf returns the reference date given as YYYY-MM-DD, or today.
func (e *Env) AsOf(date string) (time.Time, error) {
	if date == "" {
		return e.Now(), nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return t, nil
}

// parseCadences accepts repeated or comma separated values and drops duplicates.
func parseCadences(values []string) ([]domain.Cadence, error) {
	var cadences []domain.Cadence
	seen := make(map[domain.Cadence]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := domain.ParseCadence(part)
			if err != nil {
				return nil, err
			}
			if !seen[c] {
				seen[c] = true
				cadences = append(cadences, c)
			}
		}
	}
	if len(cadences) == 0 {
		return domain.Cadences(), nil
	}
	return cadences, nil
}
