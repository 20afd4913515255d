package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
)

var planCmd = &cobra.Command{
	Use:   "plan <source> <destination>",
	Short: "Print the three best routes between two cities as JSON",
	Args:  cobra.ExactArgs(2),
	RunE:  runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	out, err := rt.RoutePlanner.Optimize(ctx, routeRequest(args[0], args[1]))
	if err != nil {
		return err
	}
	if out.Invalid != nil {
		cmd.PrintErrln("warning:", out.Invalid.Error())
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out.JSON)
	return err
}

func routeRequest(source, destination string) contractx.RouteRequest {
	return contractx.RouteRequest{
		Source:      strings.TrimSpace(source),
		Destination: strings.TrimSpace(destination),
	}
}
