// Package interrupt reconciles human-in-the-loop interrupts with the run lifecycle.
//
// The backend raises an interrupt with a custom event while a run is still
// streaming. The Reconciler buffers the parsed value and reveals it only once
// the run has settled, so a prompt never flashes on screen and then vanishes,
// and a run can reveal at most one prompt.
package interrupt

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// WrapperKey is the field some backends wrap the interrupt value in.
const WrapperKey = "__copilotkit_interrupt_value__"

// Kind identifies the variant of a Value.
type Kind string

const (
	// KindApproval is a structured request to approve an action.
	KindApproval Kind = "approval"

	// KindPrompt is a free-form question with a message.
	KindPrompt Kind = "prompt"

	// KindText is an unstructured string.
	KindText Kind = "text"
)

// Value is a parsed interrupt. It is one of Approval, Prompt or Text.
type Value interface {
	Kind() Kind
	sealed()
}

// Approval asks the user to approve or cancel an action.
type Approval struct {
	Action          string
	Command         string
	Reason          string
	OriginalMessage string

	// Raw is the structured value as received.
	Raw json.RawMessage
}

func (Approval) Kind() Kind { return KindApproval }
func (Approval) sealed()    {}

// Prompt asks the user a free-form question.
// Message is empty when the structured value had no message field.
type Prompt struct {
	Message string

	// Raw is the structured value as received.
	Raw json.RawMessage
}

func (Prompt) Kind() Kind { return KindPrompt }
func (Prompt) sealed()    {}

// Text is an interrupt payload that was not a structured value.
type Text string

func (Text) Kind() Kind { return KindText }
func (Text) sealed()    {}

// Parse normalizes an opaque custom event payload into a Value.
//
// String payloads are decoded as JSON when they are valid JSON, and returned
// unchanged otherwise. Decoded objects wrapped in WrapperKey are unwrapped one
// level. Parse never fails; it returns false for empty payloads and for payloads
// that decode to null, false, zero or an empty string.
func Parse(payload any) (Value, bool) {
	switch p := payload.(type) {
	case nil:
		return nil, false
	case string:
		if p == "" {
			return nil, false
		}
		if !gjson.Valid(p) {
			return Text(p), true
		}
		res := gjson.Parse(p)
		if !truthy(res) {
			return nil, false
		}
		return classify(res, p), true
	case json.RawMessage:
		return parseBytes(p)
	case []byte:
		return parseBytes(p)
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return Text(fmt.Sprint(p)), true
		}
		res := gjson.ParseBytes(data)
		if !truthy(res) {
			return nil, false
		}
		return classify(res, res.Raw), true
	}
}

func parseBytes(data []byte) (Value, bool) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false
	}
	if !gjson.ValidBytes(data) {
		return Text(data), true
	}
	res := gjson.ParseBytes(data)
	if !truthy(res) {
		return nil, false
	}
	return classify(res, string(data)), true
}

// classify maps a decoded JSON value onto a variant. original is returned as
// text when the value is neither an object nor a string.
func classify(res gjson.Result, original string) Value {
	if res.IsObject() {
		if inner := res.Get(WrapperKey); truthy(inner) {
			res = inner
			original = inner.Raw
		}
	}

	switch {
	case res.IsObject():
		raw := json.RawMessage(res.Raw)
		if action := res.Get("action"); action.Exists() {
			return Approval{
				Action:          action.String(),
				Command:         firstString(res, "args.command", "command"),
				Reason:          firstString(res, "args.reason", "reason"),
				OriginalMessage: firstString(res, "args.original_message", "original_message"),
				Raw:             raw,
			}
		}
		if msg := res.Get("message"); msg.Exists() {
			return Prompt{Message: msg.String(), Raw: raw}
		}
		return Prompt{Raw: raw}
	case res.Type == gjson.String:
		return Text(res.Str)
	default:
		return Text(original)
	}
}

func firstString(res gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := res.Get(path); v.Exists() {
			return v.String()
		}
	}
	return ""
}

// truthy mirrors how the wrapper field is detected: absent, null, false,
// zero and empty string do not count.
func truthy(res gjson.Result) bool {
	if !res.Exists() {
		return false
	}
	switch res.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return res.Float() != 0
	case gjson.String:
		return res.Str != ""
	default:
		return true
	}
}

// prettyJSON renders a structured value with two-space indentation.
func prettyJSON(raw json.RawMessage) string {
	out := pretty.PrettyOptions(raw, &pretty.Options{Width: 80, Indent: "  "})
	return string(bytes.TrimRight(out, "\n"))
}
