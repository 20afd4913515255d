package tool

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cloudwego/eino/schema"
)

const ToolBestRoute = "best_route"

// RoutePlanner runs the route pipeline and returns its JSON array.
type RoutePlanner interface {
	Plan(ctx context.Context, source, destination string) (json.RawMessage, error)
}

type BestRouteInput struct {
	Source      string `json:"source" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

// BestRouteDefinition exposes the route pipeline to the assistant. The
// pipeline makes several model and tool calls, so it gets a longer timeout.
func BestRouteDefinition(planner RoutePlanner, timeout time.Duration) Definition {
	return Definition{
		Name: ToolBestRoute,
		Desc: "Find the 3 best multi-modal ways to ship cargo from source to destination, with total cost (INR), time and carbon emission for each.",
		Params: map[string]*schema.ParameterInfo{
			"source":      {Type: schema.String, Desc: "Origin city", Required: true},
			"destination": {Type: schema.String, Desc: "Destination city", Required: true},
		},
		Timeout: timeout,
		Handler: Typed(func(ctx context.Context, in BestRouteInput) (string, error) {
			raw, err := planner.Plan(ctx, in.Source, in.Destination)
			if err != nil {
				return "", err
			}
			return string(raw), nil
		}),
	}
}
