package commands

import (
	"fmt"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/services/workflow"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type RunsCmd struct {
	env     *Env
	cadence string
	limit   uint64
}

func NewRunsCmd(env *Env) *cobra.Command {
	rc := &RunsCmd{env: env}
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the history of report runs",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.cadence, "cadence", "", "Only show runs of this cadence")
	cmd.Flags().Uint64Var(&rc.limit, "limit", 20, "Maximum number of runs to show")

	return cmd
}

func (rc *RunsCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	filter := workflow.RunFilter{Limit: rc.limit}
	if rc.cadence != "" {
		cadence, err := domain.ParseCadence(rc.cadence)
		if err != nil {
			return err
		}
		filter.Cadence = cadence
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

	runs, err := ctrl.Runs(ctx, filter)
	if err != nil {
		return err
	}
	return rc.env.Reporter.HandleRuns(runs)
}
