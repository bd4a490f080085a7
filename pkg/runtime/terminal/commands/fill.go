package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/runtime/terminal/export"
	"github.com/dylandoyle11/RedashETL/pkg/services/report"
	"github.com/dylandoyle11/RedashETL/pkg/store/filesystem"
	"github.com/spf13/cobra"
)

type FillCmd struct {
	env      *Env
	cadence  string
	template string
	inputs   []string
	out      string
	date     string
}

func NewFillCmd(env *Env) *cobra.Command {
	fc := &FillCmd{env: env}
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Build a report offline from saved regional exports",
		Long: `Filters each regional export to the period of the cadence, merges them in the
order given and fills the upload template. Inputs and outputs may be CSV or XLSX.`,
		RunE: fc.run,
	}

	cmd.Flags().StringVar(&fc.cadence, "cadence", "", "Cadence of the report: Y, M or W")
	cmd.Flags().StringVar(&fc.template, "template", "", "Path to the upload template")
	cmd.Flags().StringArrayVar(&fc.inputs, "input", nil, "Regional export, repeat in output order (e.g. CA then US)")
	cmd.Flags().StringVar(&fc.out, "out", "", "Path of the report to write")
	cmd.Flags().StringVar(&fc.date, "date", "", "Reference date as YYYY-MM-DD (default today)")

	_ = cmd.MarkFlagRequired("cadence")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func (fc *FillCmd) run(cmd *cobra.Command, _ []string) error {
	cadence, err := domain.ParseCadence(fc.cadence)
	if err != nil {
		return err
	}
	asOf, err := fc.env.AsOf(fc.date)
	if err != nil {
		return err
	}
	cfg, err := fc.env.LoadConfig()
	if err != nil {
		return err
	}
	schema := cfg.Schema()

	period, err := report.ResolvePeriod(cadence, asOf)
	if err != nil {
		return err
	}

	summary := export.FillSummary{Period: period, Output: fc.out}
	datasets := make([]*domain.Table, 0, len(fc.inputs))
	for _, input := range fc.inputs {
		raw, err := filesystem.ReadTable(input)
		if err != nil {
			return err
		}
		dataset, err := report.Filter(raw, cadence, period.Range.Start, schema)
		if err != nil {
			return fmt.Errorf("failed to filter %s: %w", input, err)
		}
		summary.Inputs = append(summary.Inputs, domain.RegionSummary{
			Region:       regionName(input),
			RawRows:      raw.Len(),
			FilteredRows: dataset.Len(),
		})
		datasets = append(datasets, dataset)
	}

	assembler := report.NewAssembler(schema, templateFile(fc.template))
	filled, stats, err := assembler.Assemble(cmd.Context(), cadence, datasets...)
	if err != nil {
		return err
	}
	if err := filesystem.WriteTable(fc.out, filled); err != nil {
		return err
	}

	summary.Stats = stats
	summary.Rows = filled.Len()
	return fc.env.Reporter.HandleFill(summary)
}

// templateFile loads the same template file whatever the cadence.
type templateFile string

func (p templateFile) LoadTemplate(_ context.Context, _ domain.Cadence) (*domain.Table, error) {
	return filesystem.ReadTable(string(p))
}

func regionName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
