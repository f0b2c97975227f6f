package interrupt

import "github.com/tidwall/gjson"

// ActionServerCommandApproval is the approval action raised before a
// dangerous server-side command runs.
const ActionServerCommandApproval = "server_command_approval"

// Literal responses for approval prompts.
const (
	ResponseApproved = "APPROVED"
	ResponseCancel   = "CANCEL"
)

// PromptKind selects how a revealed interrupt is presented.
type PromptKind string

const (
	// PromptApproval is answered with ResponseApproved or ResponseCancel.
	PromptApproval PromptKind = "approval"

	// PromptInput is answered with free text.
	PromptInput PromptKind = "input"
)

// Presentation describes what the UI shows for a revealed interrupt.
type Presentation struct {
	Kind    PromptKind `json:"kind"`
	Title   string     `json:"title"`
	Content string     `json:"content,omitempty"`
	Command string     `json:"command,omitempty"`
	Reason  string     `json:"reason,omitempty"`
}

// DefaultApprovalActions returns the approval actions recognized by default.
func DefaultApprovalActions() []string {
	return []string{ActionServerCommandApproval}
}

// Present decides how v is shown. Approvals whose action is in recognized get
// an approve/cancel prompt; every other value becomes a free-text prompt.
func Present(v Value, recognized map[string]struct{}) Presentation {
	if a, ok := v.(Approval); ok {
		if _, known := recognized[a.Action]; known {
			return Presentation{
				Kind:    PromptApproval,
				Title:   "Server Interrupt HITL",
				Command: a.Command,
				Reason:  a.Reason,
			}
		}
	}
	return Presentation{
		Kind:    PromptInput,
		Title:   "Agent Needs Your Input",
		Content: DisplayContent(v),
	}
}

// DisplayContent returns the human-readable text of an interrupt: the raw
// text, the message field, or the structured value pretty-printed.
func DisplayContent(v Value) string {
	switch val := v.(type) {
	case Text:
		return string(val)
	case Prompt:
		if val.Message != "" || gjson.GetBytes(val.Raw, "message").Exists() {
			return val.Message
		}
		return prettyJSON(val.Raw)
	case Approval:
		if msg := gjson.GetBytes(val.Raw, "message"); msg.Exists() {
			return msg.String()
		}
		return prettyJSON(val.Raw)
	default:
		return ""
	}
}
