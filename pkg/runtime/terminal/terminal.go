package terminal

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/runtime/app"
	"github.com/dylandoyle11/RedashETL/pkg/runtime/terminal/commands"
	"github.com/dylandoyle11/RedashETL/pkg/runtime/terminal/export"
	"github.com/dylandoyle11/RedashETL/pkg/services/config"
	"github.com/dylandoyle11/RedashETL/pkg/services/workflow"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	env     *commands.Env
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
	// Open defaults to wiring the real stores and sources.
	Open commands.OpenFunc
	Now  func() time.Time
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Open == nil {
		opts.Open = openApp
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cli := &CLI{
		env: &commands.Env{
			Reporter: export.NewReporter(opts.Output),
			Open:     opts.Open,
			Now:      opts.Now,
		},
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args, mostly for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "reports",
		Short:         "Dealer report aggregation tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&cli.env.ConfigPath, "config", "c", "",
		"Path to the reports YAML configuration (built-in defaults when empty)")
	cmd.PersistentFlags().StringVar(&cli.env.ProfilesPath, "profiles", defaultProfilesPath(),
		"Path to the Redash profiles file")

	cmd.AddCommand(commands.NewRunCmd(cli.env))
	cmd.AddCommand(commands.NewPeriodCmd(cli.env))
	cmd.AddCommand(commands.NewFillCmd(cli.env))
	cmd.AddCommand(commands.NewRunsCmd(cli.env))

	return cmd
}

func defaultProfilesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".redashcfg"
	}
	return filepath.Join(home, ".redashcfg")
}

func openApp(ctx context.Context, cfg *config.Config, profilesPath string) (workflow.Controller, io.Closer, error) {
	a, err := app.Build(ctx, cfg, profilesPath)
	if err != nil {
		return nil, nil, err
	}
	return a.Controller, a, nil
}
