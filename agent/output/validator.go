package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/metrics"
)

const RouteCount = 3

var requiredFields = []string{"total_cost", "total_time", "total_carbon_emission", "route"}

type Kind string

const (
	KindMalformedJSON Kind = "malformed_json"
	KindWrongCount    Kind = "wrong_count"
	KindMissingField  Kind = "missing_field"
)

// ValidationError describes why model text is not a valid route answer.
// Index is zero based and only set for KindMissingField.
type ValidationError struct {
	Kind  Kind
	Index int
	Field string
	Count int
	Cause error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMalformedJSON:
		return fmt.Sprintf("malformed json: %v", e.Cause)
	case KindWrongCount:
		return fmt.Sprintf("response must be a JSON array with exactly %d routes, got %d", RouteCount, e.Count)
	case KindMissingField:
		return fmt.Sprintf("route %d missing required field: %s", e.Index+1, e.Field)
	default:
		return string(e.Kind)
	}
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{contractx.ErrValidation}
	}
	return []error{contractx.ErrValidation, e.Cause}
}

// Validate checks model text against the route answer contract and returns
// the routes with a canonical two-space rendering of the input. The
// canonical form keeps key order and number literals, so validating it
// again yields the same text.
func Validate(raw string) (Result, error) {
	body := StripFence(raw)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return Result{}, &ValidationError{Kind: KindMalformedJSON, Cause: err}
	}
	if len(items) != RouteCount {
		return Result{}, &ValidationError{Kind: KindWrongCount, Count: len(items)}
	}

	routes := make([]RouteOption, len(items))
	for i, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			return Result{}, &ValidationError{Kind: KindMalformedJSON, Cause: fmt.Errorf("route %d: %w", i+1, err)}
		}
		for _, name := range requiredFields {
			if _, ok := fields[name]; !ok {
				return Result{}, &ValidationError{Kind: KindMissingField, Index: i, Field: name}
			}
		}
		if err := json.Unmarshal(item, &routes[i]); err != nil {
			return Result{}, &ValidationError{Kind: KindMalformedJSON, Cause: fmt.Errorf("route %d: %w", i+1, err)}
		}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "  "); err != nil {
		return Result{}, &ValidationError{Kind: KindMalformedJSON, Cause: err}
	}
	return Result{Routes: routes, Canonical: buf.String()}, nil
}

// StripFence removes a surrounding markdown code fence with an optional
// json language tag.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Fallback renders the single-route error answer for err.
func Fallback(err error) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	type fallbackOption struct {
		TotalCost           int    `json:"total_cost"`
		TotalTime           string `json:"total_time"`
		TotalCarbonEmission string `json:"total_carbon_emission"`
		Feature             string `json:"feature"`
		Route               []Leg  `json:"route"`
	}
	payload := []fallbackOption{{
		TotalCost:           0,
		TotalTime:           "Error",
		TotalCarbonEmission: "Error",
		Feature:             "JSON parsing failed: " + msg,
		Route:               []Leg{{From: "Error", To: "Error", Distance: "Error", Mode: "Error"}},
	}}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		// Only plain strings and ints are encoded here.
		panic(fmt.Sprintf("encode fallback: %v", err))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Finalize returns canonical route JSON, or the fallback when raw does not
// validate. The second value reports the validation failure, if any.
func Finalize(raw string) (string, *ValidationError) {
	res, err := Validate(raw)
	if err == nil {
		return res.Canonical, nil
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		verr = &ValidationError{Kind: KindMalformedJSON, Cause: err}
	}
	metrics.RecordValidationFallback(string(verr.Kind))
	log.Warn().Err(verr).Str("kind", string(verr.Kind)).Msg("route answer failed validation; using fallback")
	return Fallback(verr), verr
}
