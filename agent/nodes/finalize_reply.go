package nodes

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/metrics"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrGraphState)
	}
	if !in.Outcome.IsFinal() {
		return GraphOutput{}, fmt.Errorf("%w: turn ended without a final answer", contractx.ErrSchemaViolation)
	}

	metrics.RecordToolIterations("chat", in.Iterations)
	return GraphOutput{
		ThreadID:   in.ThreadID,
		Reply:      strings.TrimSpace(in.Outcome.Text),
		Iterations: in.Iterations,
		Compacted:  in.Compacted,
	}, nil
}
