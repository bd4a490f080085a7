package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/dylandoyle11/RedashETL/pkg/runtime/app"
	"github.com/dylandoyle11/RedashETL/pkg/server"
	"github.com/dylandoyle11/RedashETL/pkg/services/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	profilesPath string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for dealer reports",
		RunE:  runServer,
	}

	defaultProfiles := ".redashcfg"
	if home, err := os.UserHomeDir(); err == nil {
		defaultProfiles = filepath.Join(home, ".redashcfg")
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the reports YAML configuration (built-in defaults when empty)")
	rootCmd.Flags().StringVar(&profilesPath, "profiles", defaultProfiles,
		"Path to the Redash profiles file (default is $HOME/.redashcfg)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	reports, err := app.Build(ctx, cfg, profilesPath)
	if err != nil {
		return fmt.Errorf("failed to set up reports: %w", err)
	}
	defer func() {
		if err := reports.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close resources")
		}
	}()

	logger.Info().Msgf("Configured regions:")
	for _, region := range cfg.Regions {
		logger.Info().Msgf("Name: `%s`, Source: `%s`", region.Name, region.Source)
	}

	host := cfg.Server.Host
	if v := os.Getenv("SERVER_HOST"); v != "" {
		host = v
	}
	port := cfg.Server.Port
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port = v
	}

	api := server.NewWebAPI(server.Config{
		Addr: net.JoinHostPort(host, port),
		Dependencies: server.Dependencies{
			Reports: reports.Controller,
			Logger:  logger,
		},
	})

	return api.Start()
}
