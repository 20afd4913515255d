package prompt

import (
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	p := LoadPromptSet()
	if err := p.Validate(); err != nil {
		t.Fatalf("embedded prompts invalid: %v", err)
	}
	if !strings.Contains(p.Summarizer, `"NDLS"`) {
		t.Fatalf("summarizer prompt lost station codes")
	}
}

func TestValidateReportsMissingPrompt(t *testing.T) {
	t.Parallel()

	p := LoadPromptSet()
	p.Planner = "  "
	if err := p.Validate(); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}

	p = LoadPromptSet()
	p.RouteRequest = "ship from somewhere"
	if err := p.Validate(); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing for template without placeholders, got %v", err)
	}
}

func TestSummaryContext(t *testing.T) {
	t.Parallel()

	if got := SummaryContext(" "); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
	if got := SummaryContext("asked about trucks"); got != "Summary of conversation earlier: asked about trucks" {
		t.Fatalf("unexpected context %q", got)
	}
}
