package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/form3tech-oss/pact-core/internal/app/configuration"
	"github.com/form3tech-oss/pact-core/pkg/generators"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port     int
		logLevel string
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the admin API",
		Example: `ADMIN_PORT=8080 pact-core serve --log-level debug`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := configuration.NewFromEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				config.AdminPort = port
			}
			if cmd.Flags().Changed("log-level") {
				config.LogLevel = logLevel
			}
			if err := config.Validate(); err != nil {
				return err
			}

			config.ConfigureLogging()
			if config.GeneratorSeed != 0 {
				generators.SeedDefaultSource(config.GeneratorSeed)
			}

			if _, err := configuration.ServeAdminAPI(config); err != nil {
				return err
			}
			log.Infof("admin API listening on :%d, writing pact specification %s", config.AdminPort, config.SpecVersion())

			c := make(chan os.Signal, 2)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			<-c

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			configuration.ShutdownAllServers(ctx)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port the admin API listens on, overrides ADMIN_PORT")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level, overrides LOG_LEVEL")

	return cmd
}
