package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/output"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
)

// Estimate is a daily warehouse resource allocation.
type Estimate struct {
	Forklifts int `json:"forklifts" validate:"min=1,max=10"`
	Trucks    int `json:"trucks" validate:"min=1,max=10"`
	Labour    int `json:"labour" validate:"min=20,max=100"`
}

// Service asks a model for a resource estimate.
type Service struct {
	completer contractx.Completer
	prompt    string
	validate  *validator.Validate
}

func New(completer contractx.Completer, prompt string) (*Service, error) {
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: resources", contractx.ErrPromptMissing)
	}
	return &Service{
		completer: completer,
		prompt:    strings.TrimSpace(prompt),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (s *Service) Estimate(ctx context.Context) (Estimate, error) {
	text, err := s.completer.Complete(ctx, nil, []statex.Message{statex.NewUserMessage(s.prompt)})
	if err != nil {
		return Estimate{}, err
	}

	body := output.StripFence(text)
	var est Estimate
	if err := json.Unmarshal([]byte(body), &est); err != nil {
		return Estimate{}, fmt.Errorf("%w: invalid response from model after cleanup: %s", contractx.ErrSchemaViolation, body)
	}
	if err := s.validate.Struct(est); err != nil {
		return Estimate{}, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	return est, nil
}
