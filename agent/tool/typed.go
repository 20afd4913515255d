package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Typed adapts a function over a typed input struct into a Handler. Arguments
// are decoded through JSON, then checked against the struct's validate tags.
// Zero-valued fields may be filled by a Defaults method on In.
func Typed[In any, Out any](fn func(ctx context.Context, in In) (Out, error)) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("%w: encode arguments: %v", contractx.ErrValidation, err)
		}
		var in In
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("%w: decode arguments: %v", contractx.ErrValidation, err)
		}
		if d, ok := any(&in).(interface{ Defaults() }); ok {
			d.Defaults()
		}
		if err := structValidator.Struct(in); err != nil {
			return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
		}
		return fn(ctx, in)
	}
}
