package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/runtime"
	configx "github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/config"
	logx "github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/logger"
	_ "github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/logger/autoload"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "transpectra",
	Short:         "Logistics agent: multi-modal route planning and a warehouse assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if envFile != "" {
			configx.SetEnvFile(envFile)
		}
		conf, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return fmt.Errorf("load LOG config: %w", err)
		}
		logx.Init(*conf)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default .env)")
	rootCmd.AddCommand(serveCmd, planCmd, chatCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func buildRuntime(ctx context.Context) (*runtime.Runtime, error) {
	settings, err := runtime.LoadSettings()
	if err != nil {
		return nil, err
	}
	return runtime.New(ctx, settings)
}
