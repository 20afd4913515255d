package nodes

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
)

func ShouldCompact(in *GraphState, compactor contractx.Compactor) bool {
	return in != nil && compactor.ShouldCompact(in.Conversation)
}

func CompactMemory(
	ctx context.Context,
	in *GraphState,
	compactor contractx.Compactor,
) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrGraphState)
	}
	if err := compactor.Compact(ctx, in.Conversation); err != nil {
		return nil, err
	}
	in.Compacted = true
	return in, nil
}
