package pipelinenode

import (
	"fmt"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/output"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/metrics"
)

// ValidateOutput never fails on bad model text; it returns the fallback
// answer instead.
func ValidateOutput(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrGraphState)
	}

	metrics.RecordToolIterations("pipeline", boolToInt(in.Tools > 0))
	body, verr := output.Finalize(in.Raw)
	return GraphOutput{JSON: body, Invalid: verr, Tools: in.Tools}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
