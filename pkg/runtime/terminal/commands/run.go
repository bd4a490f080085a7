package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type RunCmd struct {
	env      *Env
	cadences []string
	date     string
}

func NewRunCmd(env *Env) *cobra.Command {
	rc := &RunCmd{env: env}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the regional exports and build the dealer reports",
		RunE:  rc.run,
	}

	cmd.Flags().StringSliceVar(&rc.cadences, "cadence", nil, "Cadences to build: Y, M, W (default all)")
	cmd.Flags().StringVar(&rc.date, "date", "", "Reference date as YYYY-MM-DD (default today)")

	return cmd
}

func (rc *RunCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cadences, err := parseCadences(rc.cadences)
	if err != nil {
		return err
	}
	asOf, err := rc.env.AsOf(rc.date)
	if err != nil {
		return err
	}

	cfg, err := rc.env.LoadConfig()
	if err != nil {
		return err
	}
	ctrl, closer, err := rc.env.Open(ctx, cfg, rc.env.ProfilesPath)
	if err != nil {
		return fmt.Errorf("failed to set up reports: %w", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to close resources")
		}
	}()

	outcomes, runErr := ctrl.Run(ctx, cadences, asOf)
	if err := rc.env.Reporter.HandleOutcomes(outcomes); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("some reports failed: %w", runErr)
	}
	return nil
}
