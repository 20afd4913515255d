package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
)

var (
	//go:embed template/assistant.txt
	assistantRaw string

	//go:embed template/planner.txt
	plannerRaw string

	//go:embed template/summarizer.txt
	summarizerRaw string

	//go:embed template/route_request.txt
	routeRequestRaw string

	//go:embed template/resources.txt
	resourcesRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Assistant  string
	Planner    string
	Summarizer string
	// RouteRequest is an FString template over {source} and {destination}.
	RouteRequest string
	Resources    string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Assistant:    strings.TrimSpace(assistantRaw),
		Planner:      strings.TrimSpace(plannerRaw),
		Summarizer:   strings.TrimSpace(summarizerRaw),
		RouteRequest: strings.TrimSpace(routeRequestRaw),
		Resources:    strings.TrimSpace(resourcesRaw),
	}
}

// Validate reports the first empty prompt.
func (p PromptSet) Validate() error {
	for name, v := range map[string]string{
		"assistant":     p.Assistant,
		"planner":       p.Planner,
		"summarizer":    p.Summarizer,
		"route_request": p.RouteRequest,
		"resources":     p.Resources,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s", contractx.ErrPromptMissing, name)
		}
	}
	if !strings.Contains(p.RouteRequest, "{source}") || !strings.Contains(p.RouteRequest, "{destination}") {
		return fmt.Errorf("%w: route_request needs {source} and {destination}", contractx.ErrPromptMissing)
	}
	return nil
}

// SummaryContext is the system line that carries a thread's rolling summary.
func SummaryContext(summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return ""
	}
	return "Summary of conversation earlier: " + summary
}
