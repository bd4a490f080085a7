package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/store/tabular"
	"github.com/rs/zerolog"
)

var templateExtensions = []string{".csv", ".xlsx"}

type Settings struct {
	Dir string
}

// Store keeps templates or generated reports under a local directory.
type Store struct {
	dir string
}

func NewStore(settings Settings) *Store {
	return &Store{dir: settings.Dir}
}

// TemplateName is the base file name of the template of a cadence.
func TemplateName(cadence domain.Cadence) string {
	return cadence.Title() + " Template"
}

// LoadTemplate reads "<Title> Template.csv" or, failing that, the .xlsx variant.
func (s *Store) LoadTemplate(ctx context.Context, cadence domain.Cadence) (*domain.Table, error) {
	for _, ext := range templateExtensions {
		path := filepath.Join(s.dir, TemplateName(cadence)+ext)
		table, err := ReadTable(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		zerolog.Ctx(ctx).Debug().Str("path", path).Int("rows", table.Len()).Msg("template loaded")
		return table, nil
	}
	return nil, fmt.Errorf("no %s template in %s", cadence.Title(), s.dir)
}

// SaveTable writes table under a per-run directory and returns its path. The
// file format follows the extension of name.
func (s *Store) SaveTable(ctx context.Context, runID, name string, table *domain.Table) (string, error) {
	dir := filepath.Join(s.dir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run output directory: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	if err := WriteTable(path, table); err != nil {
		return "", err
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Int("rows", table.Len()).Msg("table saved")
	return path, nil
}

func ReadTable(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := tabular.Read(f, tabular.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return table, nil
}

func WriteTable(path string, table *domain.Table) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := tabular.Write(f, table, tabular.FormatFromPath(path)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
