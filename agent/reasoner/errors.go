package reasoner

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
)

// classify maps a backend failure onto the contract taxonomy while keeping
// the cause reachable through errors.Is.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, contractx.ErrBackendTimeout) || errors.Is(err, contractx.ErrBackendUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", contractx.ErrBackendTimeout, err)
	}
	return fmt.Errorf("%w: %w", contractx.ErrBackendUnavailable, err)
}

// retryable reports whether one more attempt may help: the backend failed
// on its own and the caller is still waiting.
func retryable(parent context.Context, err error) bool {
	return parent.Err() == nil &&
		errors.Is(err, contractx.ErrBackendUnavailable) &&
		!errors.Is(err, context.Canceled)
}
