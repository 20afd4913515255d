package main

import (
	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/config"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	httpCfg, err := configx.New[httpapi.Config]("HTTP")
	if err != nil {
		return err
	}
	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	router := httpapi.NewRouter(*httpCfg, httpapi.Backends{
		Assistant:    rt.Assistant,
		RoutePlanner: rt.RoutePlanner,
		Catalogue:    rt.Tools.Catalogue,
		Forecaster:   rt.Tools.Forecaster,
		Resources:    rt.Resources,
	})
	return httpapi.Serve(ctx, *httpCfg, router)
}
