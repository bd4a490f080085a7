package commands

import (
	"github.com/dylandoyle11/RedashETL/pkg/services/report"
	"github.com/spf13/cobra"
)

type PeriodCmd struct {
	env      *Env
	cadences []string
	date     string
}

func NewPeriodCmd(env *Env) *cobra.Command {
	pc := &PeriodCmd{env: env}
	cmd := &cobra.Command{
		Use:   "period",
		Short: "Show the date range and month labels of a cadence",
		RunE:  pc.run,
	}

	cmd.Flags().StringSliceVar(&pc.cadences, "cadence", nil, "Cadences to show: Y, M, W (default all)")
	cmd.Flags().StringVar(&pc.date, "date", "", "Reference date as YYYY-MM-DD (default today)")

	return cmd
}

func (pc *PeriodCmd) run(_ *cobra.Command, _ []string) error {
	cadences, err := parseCadences(pc.cadences)
	if err != nil {
		return err
	}
	asOf, err := pc.env.AsOf(pc.date)
	if err != nil {
		return err
	}

	for _, cadence := range cadences {
		period, err := report.ResolvePeriod(cadence, asOf)
		if err != nil {
			return err
		}
		if err := pc.env.Reporter.HandlePeriod(period); err != nil {
			return err
		}
	}
	return nil
}
