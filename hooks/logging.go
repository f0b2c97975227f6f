package hooks

import (
	"context"
	"log"

	"github.com/agentpatterns/hitlkit/interrupt"
	"github.com/agentpatterns/hitlkit/thread"
)

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with default logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// InterruptRevealed logs a revealed interrupt
func (h *LoggingHooks) InterruptRevealed(ctx context.Context, namespace string, prompt interrupt.Presentation) error {
	h.logger.Printf("[hitlkit] %s: interrupt revealed (%s): %s", namespace, prompt.Kind, prompt.Title)
	return nil
}

// Resume logs an interrupt response
func (h *LoggingHooks) Resume(ctx context.Context, namespace, response string, err error) error {
	if err != nil {
		h.logger.Printf("[hitlkit] %s: resume failed: %v", namespace, err)
		return nil
	}
	h.logger.Printf("[hitlkit] %s: resumed with %s", namespace, preview(response))
	return nil
}

// Regenerate logs a regeneration
func (h *LoggingHooks) Regenerate(ctx context.Context, namespace, messageID string, kept int) error {
	h.logger.Printf("[hitlkit] %s: regenerating %s from %d messages", namespace, messageID, kept)
	return nil
}

// ThreadChanged logs an active thread change
func (h *LoggingHooks) ThreadChanged(ctx context.Context, namespace, threadID string) error {
	h.logger.Printf("[hitlkit] %s: active thread %s", namespace, threadID)
	return nil
}

// ThreadSaved logs a saved thread
func (h *LoggingHooks) ThreadSaved(ctx context.Context, namespace string, record thread.Record) error {
	h.logger.Printf("[hitlkit] %s: saved thread %s as %q", namespace, record.ID, record.Name)
	return nil
}

// preview shortens a response for logging.
func preview(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}

// VerboseLoggingHooks provides detailed logging for debugging
type VerboseLoggingHooks struct {
	logger *log.Logger
}

// NewVerboseLoggingHooks creates verbose logging hooks
func NewVerboseLoggingHooks(logger *log.Logger) *VerboseLoggingHooks {
	return &VerboseLoggingHooks{logger: logger}
}

// InterruptRevealed logs the full presentation of a revealed interrupt
func (h *VerboseLoggingHooks) InterruptRevealed(ctx context.Context, namespace string, prompt interrupt.Presentation) error {
	h.logger.Printf("[hitlkit][VERBOSE] === Interrupt in %s ===", namespace)
	h.logger.Printf("[hitlkit][VERBOSE] Kind: %s", prompt.Kind)
	h.logger.Printf("[hitlkit][VERBOSE] Title: %s", prompt.Title)

	if prompt.Kind == interrupt.PromptApproval {
		h.logger.Printf("[hitlkit][VERBOSE] Command: %s", prompt.Command)
		h.logger.Printf("[hitlkit][VERBOSE] Reason: %s", prompt.Reason)
	} else {
		h.logger.Printf("[hitlkit][VERBOSE] Content: %s", prompt.Content)
	}
	return nil
}

// Resume logs the full response
func (h *VerboseLoggingHooks) Resume(ctx context.Context, namespace, response string, err error) error {
	h.logger.Printf("[hitlkit][VERBOSE] Resume %s: %s", namespace, response)
	if err != nil {
		h.logger.Printf("[hitlkit][VERBOSE] Error: %v", err)
	}
	return nil
}

// Regenerate logs regeneration details
func (h *VerboseLoggingHooks) Regenerate(ctx context.Context, namespace, messageID string, kept int) error {
	h.logger.Printf("[hitlkit][VERBOSE] === Regenerate in %s ===", namespace)
	h.logger.Printf("[hitlkit][VERBOSE] Message: %s", messageID)
	h.logger.Printf("[hitlkit][VERBOSE] Kept messages: %d", kept)
	return nil
}

// ThreadChanged logs thread changes
func (h *VerboseLoggingHooks) ThreadChanged(ctx context.Context, namespace, threadID string) error {
	h.logger.Printf("[hitlkit][VERBOSE] Thread %s -> %s", namespace, threadID)
	return nil
}

// ThreadSaved logs saved records
func (h *VerboseLoggingHooks) ThreadSaved(ctx context.Context, namespace string, record thread.Record) error {
	h.logger.Printf("[hitlkit][VERBOSE] Saved %s: id=%s name=%q at=%s",
		namespace, record.ID, record.Name, record.SavedAtText())
	return nil
}

// MetricsHooks collects metrics for monitoring
type MetricsHooks struct {
	OnMetric func(name string, value float64, tags map[string]string)
}

// NewMetricsHooks creates metrics collection hooks
func NewMetricsHooks(onMetric func(string, float64, map[string]string)) *MetricsHooks {
	return &MetricsHooks{OnMetric: onMetric}
}

// InterruptRevealed counts revealed interrupts by kind
func (h *MetricsHooks) InterruptRevealed(ctx context.Context, namespace string, prompt interrupt.Presentation) error {
	h.OnMetric("hitl.interrupt.revealed", 1, map[string]string{"namespace": namespace, "kind": string(prompt.Kind)})
	return nil
}

// Resume counts responses and failures
func (h *MetricsHooks) Resume(ctx context.Context, namespace, response string, err error) error {
	tags := map[string]string{"namespace": namespace}

	if err != nil {
		h.OnMetric("hitl.resume.error", 1, tags)
		return nil
	}

	switch response {
	case interrupt.ResponseApproved:
		h.OnMetric("hitl.resume.approved", 1, tags)
	case interrupt.ResponseCancel:
		h.OnMetric("hitl.resume.cancelled", 1, tags)
	default:
		h.OnMetric("hitl.resume.text", 1, tags)
	}
	return nil
}

// Regenerate records the kept prefix size
func (h *MetricsHooks) Regenerate(ctx context.Context, namespace, messageID string, kept int) error {
	h.OnMetric("hitl.regenerate.kept_messages", float64(kept), map[string]string{"namespace": namespace})
	return nil
}
