package nodes

import (
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
)

type Decision int

const (
	Continue Decision = iota
	DispatchTools
)

func (d Decision) String() string {
	if d == DispatchTools {
		return "dispatch_tools"
	}
	return "continue"
}

// Route dispatches tools iff last is an assistant turn carrying requests.
func Route(last statex.Message) Decision {
	if last.Role == statex.RoleAssistant && len(last.ToolCalls) > 0 {
		return DispatchTools
	}
	return Continue
}

// RouteLast applies Route to the newest message of st.
func RouteLast(st *statex.ConversationState) Decision {
	last, ok := st.LastMessage()
	if !ok {
		return Continue
	}
	return Route(last)
}
