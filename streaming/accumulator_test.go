package streaming

import (
	"testing"

	"github.com/agentpatterns/hitlkit/types"
)

func TestAccumulator_TextMessage(t *testing.T) {
	base := []types.Message{{ID: "u1", Role: types.RoleUser, Content: "hi"}}
	acc := NewAccumulator(base)

	acc.Process(&TextMessageStartEvent{MessageID: "a1", Role: types.RoleAssistant})
	acc.Process(&TextMessageContentEvent{MessageID: "a1", Delta: "Hel"})

	if !acc.Streaming() {
		t.Error("expected accumulator to be streaming")
	}
	partial := acc.Messages()
	if len(partial) != 2 || partial[1].Content != "Hel" {
		t.Fatalf("partial messages = %+v", partial)
	}

	acc.Process(&TextMessageContentEvent{MessageID: "a1", Delta: "lo"})
	acc.Process(&TextMessageEndEvent{MessageID: "a1"})

	if acc.Streaming() {
		t.Error("expected accumulator to be idle")
	}
	got := acc.Messages()
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[1].ID != "a1" || got[1].Role != types.RoleAssistant || got[1].Content != "Hello" {
		t.Errorf("unexpected message %+v", got[1])
	}

	// base must not be modified
	if len(base) != 1 {
		t.Errorf("base history modified: %+v", base)
	}
}

func TestAccumulator_IgnoresUnknownMessage(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Process(&TextMessageContentEvent{MessageID: "missing", Delta: "x"})
	acc.Process(&TextMessageEndEvent{MessageID: "missing"})
	acc.Process(&RunStartedEvent{})

	if got := acc.Messages(); len(got) != 0 {
		t.Errorf("expected no messages, got %+v", got)
	}
}

func TestAccumulator_DefaultRole(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Process(&TextMessageStartEvent{MessageID: "a1"})
	acc.Process(&TextMessageEndEvent{MessageID: "a1"})

	got := acc.Messages()
	if len(got) != 1 || got[0].Role != types.RoleAssistant {
		t.Errorf("expected assistant role, got %+v", got)
	}
}

func TestAccumulator_MessagesSnapshot(t *testing.T) {
	acc := NewAccumulator([]types.Message{{ID: "old", Role: types.RoleUser}})
	acc.Process(&TextMessageStartEvent{MessageID: "a1"})

	snapshot := []types.Message{
		{ID: "s1", Role: types.RoleSystem, Content: "seed"},
		{ID: "u1", Role: types.RoleUser, Content: "hi"},
	}
	acc.Process(&MessagesSnapshotEvent{Messages: snapshot})

	got := acc.Messages()
	if len(got) != 2 || got[0].ID != "s1" || got[1].ID != "u1" {
		t.Errorf("unexpected messages after snapshot: %+v", got)
	}
	if acc.Streaming() {
		t.Error("snapshot should drop in-flight messages")
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{"finished", &RunFinishedEvent{}, true},
		{"error", &RunErrorEvent{Message: "boom"}, true},
		{"started", &RunStartedEvent{}, false},
		{"finalized", &RunFinalizedEvent{}, false},
		{"custom", &CustomEvent{Name: CustomEventInterrupt}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTerminal(tt.event); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}
