package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConversationState is the persisted checkpoint of one thread.
// It is owned by exactly one orchestration run at a time; callers serialise
// access per thread id with ThreadLocker.
type ConversationState struct {
	ThreadID string    `json:"thread_id"`
	Messages []Message `json:"messages"`
	Summary  string    `json:"summary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Tombstones lists messages removed by compaction since the last save.
	// Row-oriented stores purge them by id; snapshot stores ignore them.
	Tombstones []Message `json:"-"`
}

var (
	ErrEmptyHistory    = errors.New("conversation history is empty")
	ErrOrphanToolReply = errors.New("tool message has no matching request")
	ErrUnansweredCall  = errors.New("tool request has no result")
)

func NewConversationState(threadID string, now time.Time) *ConversationState {
	return &ConversationState{
		ThreadID:  threadID,
		Messages:  make([]Message, 0, 8),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *ConversationState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Append adds messages to the end of the history. Tombstones are rejected.
func (s *ConversationState) Append(msgs ...Message) error {
	for _, m := range msgs {
		if err := m.Validate(); err != nil {
			return err
		}
		if m.Role == RoleTombstone {
			return fmt.Errorf("%w: tombstones cannot be appended", ErrInvalidMessage)
		}
	}
	s.Messages = append(s.Messages, msgs...)
	return nil
}

// LastMessage returns the newest message, if any.
func (s *ConversationState) LastMessage() (Message, bool) {
	if s == nil || len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Compact replaces the rolling summary and keeps only the newest keep
// messages. Every dropped message is returned as a tombstone and recorded
// on the state for the store to purge.
func (s *ConversationState) Compact(summary string, keep int) []Message {
	if keep < 0 {
		keep = 0
	}
	s.Summary = summary
	if len(s.Messages) <= keep {
		return nil
	}

	cut := len(s.Messages) - keep
	tombstones := make([]Message, 0, cut)
	for _, m := range s.Messages[:cut] {
		tombstones = append(tombstones, NewTombstone(m.ID))
	}

	tail := make([]Message, keep)
	copy(tail, s.Messages[cut:])
	s.Messages = tail
	s.Tombstones = append(s.Tombstones, tombstones...)
	return tombstones
}

// TombstoneIDs returns the ids of messages pending deletion.
func (s *ConversationState) TombstoneIDs() []string {
	if s == nil || len(s.Tombstones) == 0 {
		return nil
	}
	ids := make([]string, 0, len(s.Tombstones))
	for _, t := range s.Tombstones {
		ids = append(ids, t.ID)
	}
	return ids
}

// Clone returns a deep copy. Tool arguments are copied through JSON so that
// nested maps are not shared.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("clone conversation state: %v", err))
	}
	var out ConversationState
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("clone conversation state: %v", err))
	}
	if out.Messages == nil {
		out.Messages = make([]Message, 0)
	}
	if len(s.Tombstones) > 0 {
		out.Tombstones = append([]Message(nil), s.Tombstones...)
	}
	return &out
}

// Validate checks identity and the tool request/result pairing. A tool
// message is only valid right after the assistant request batch it answers;
// a history that begins with tool messages (left behind by compaction) is
// accepted.
func (s *ConversationState) Validate() error {
	if s == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(s.ThreadID) == "" {
		return ErrInvalidThread
	}

	seen := make(map[string]struct{}, len(s.Messages))
	pending := map[string]struct{}{}
	leading := true

	for i, m := range s.Messages {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("%w: duplicate message id=%s", ErrInvalidMessage, m.ID)
		}
		seen[m.ID] = struct{}{}

		switch m.Role {
		case RoleTool:
			if leading {
				continue
			}
			if _, ok := pending[m.ToolResultOf]; !ok {
				return fmt.Errorf("%w: message %d answers %s", ErrOrphanToolReply, i, m.ToolResultOf)
			}
			delete(pending, m.ToolResultOf)
		default:
			leading = false
			if len(pending) > 0 {
				return fmt.Errorf("%w: %d pending before message %d", ErrUnansweredCall, len(pending), i)
			}
			for _, call := range m.ToolCalls {
				pending[call.ID] = struct{}{}
			}
		}
	}
	return nil
}

func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
