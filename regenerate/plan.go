// Package regenerate truncates a conversation so an assistant response can be
// produced again.
//
// The retained prefix is resubmitted as the full history. The backend tells a
// regeneration apart from a normal turn by noticing that its checkpoint holds
// more messages than the prefix it just received.
package regenerate

import "github.com/agentpatterns/hitlkit/types"

// Plan returns the prefix of messages to keep when regenerating the message
// at target. The caller has checked that messages[target] is an assistant
// message. Plan returns nil for empty input or an out-of-range target.
//
// Rules:
//
//	target == 0            keep the first two messages, or the only one
//	user before target     keep everything through the nearest user message
//	no user before target  keep only the first message
func Plan(messages []types.Message, target int) []types.Message {
	if len(messages) == 0 || target < 0 || target >= len(messages) {
		return nil
	}

	if target == 0 {
		if len(messages) > 1 {
			return types.Clone(messages[:2])
		}
		return types.Clone(messages[:1])
	}

	for i := target - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleUser {
			return types.Clone(messages[:i+1])
		}
	}

	return types.Clone(messages[:1])
}
