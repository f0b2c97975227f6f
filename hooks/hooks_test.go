package hooks

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agentpatterns/hitlkit/interrupt"
	"github.com/agentpatterns/hitlkit/thread"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
}

func TestOnInterruptRevealed(t *testing.T) {
	r := NewRegistry()
	var captured interrupt.Presentation

	r.OnInterruptRevealed(func(ctx context.Context, namespace string, prompt interrupt.Presentation) error {
		captured = prompt
		return nil
	})

	prompt := interrupt.Presentation{Kind: interrupt.PromptApproval, Title: "Server Interrupt HITL"}
	if err := r.TriggerInterruptRevealed(context.Background(), "cpk-p1-thread", prompt); err != nil {
		t.Errorf("TriggerInterruptRevealed returned error: %v", err)
	}
	if captured != prompt {
		t.Errorf("captured %+v, want %+v", captured, prompt)
	}
}

func TestOnResume(t *testing.T) {
	r := NewRegistry()
	var capturedResponse string
	var capturedErr error

	r.OnResume(func(ctx context.Context, namespace, response string, err error) error {
		capturedResponse = response
		capturedErr = err
		return nil
	})

	runErr := errors.New("run failed")
	if err := r.TriggerResume(context.Background(), "ns", "APPROVED", runErr); err != nil {
		t.Errorf("TriggerResume returned error: %v", err)
	}
	if capturedResponse != "APPROVED" {
		t.Errorf("expected response 'APPROVED', got '%s'", capturedResponse)
	}
	if capturedErr != runErr {
		t.Errorf("expected run error to be passed through, got %v", capturedErr)
	}
}

func TestOnRegenerate(t *testing.T) {
	r := NewRegistry()
	var kept int

	r.OnRegenerate(func(ctx context.Context, namespace, messageID string, n int) error {
		kept = n
		return nil
	})

	if err := r.TriggerRegenerate(context.Background(), "ns", "m4", 4); err != nil {
		t.Errorf("TriggerRegenerate returned error: %v", err)
	}
	if kept != 4 {
		t.Errorf("expected kept 4, got %d", kept)
	}
}

func TestOnThreadChangedAndSaved(t *testing.T) {
	r := NewRegistry()
	var changed string
	var saved thread.Record

	r.OnThreadChanged(func(ctx context.Context, namespace, threadID string) error {
		changed = threadID
		return nil
	})
	r.OnThreadSaved(func(ctx context.Context, namespace string, record thread.Record) error {
		saved = record
		return nil
	})

	ctx := context.Background()
	_ = r.TriggerThreadChanged(ctx, "ns", "t1")
	_ = r.TriggerThreadSaved(ctx, "ns", thread.Record{ID: "t1", Name: "Thread 1"})

	if changed != "t1" {
		t.Errorf("expected thread 't1', got '%s'", changed)
	}
	if saved.Name != "Thread 1" {
		t.Errorf("expected saved name 'Thread 1', got '%s'", saved.Name)
	}
}

func TestHookError(t *testing.T) {
	r := NewRegistry()
	expectedErr := errors.New("hook error")
	secondCalled := false

	r.OnThreadChanged(func(ctx context.Context, namespace, threadID string) error {
		return expectedErr
	})
	r.OnThreadChanged(func(ctx context.Context, namespace, threadID string) error {
		secondCalled = true
		return nil
	})

	err := r.TriggerThreadChanged(context.Background(), "ns", "t")
	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	if secondCalled {
		t.Error("second hook should not be called after first returns error")
	}
}

func TestHookOrder(t *testing.T) {
	r := NewRegistry()
	var order []int

	for i := 1; i <= 3; i++ {
		r.OnRegenerate(func(ctx context.Context, namespace, messageID string, kept int) error {
			order = append(order, i)
			return nil
		})
	}

	_ = r.TriggerRegenerate(context.Background(), "ns", "m", 1)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("expected order [1 2 3], got %v", order)
	}
}

func TestConcurrentRegistration(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.OnResume(func(ctx context.Context, namespace, response string, err error) error { return nil })
		}()
		go func() {
			defer wg.Done()
			_ = r.TriggerResume(context.Background(), "ns", "x", nil)
		}()
	}
	wg.Wait()
}

func TestRegister(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry()
	r.Register(NewLoggingHooks(log.New(&buf, "", 0)))

	ctx := context.Background()
	_ = r.TriggerInterruptRevealed(ctx, "ns", interrupt.Presentation{Kind: interrupt.PromptInput, Title: "Agent Needs Your Input"})
	_ = r.TriggerResume(ctx, "ns", "hello", nil)
	_ = r.TriggerRegenerate(ctx, "ns", "m2", 3)
	_ = r.TriggerThreadChanged(ctx, "ns", "t2")
	_ = r.TriggerThreadSaved(ctx, "ns", thread.Record{ID: "t2", Name: "Thread 1"})

	out := buf.String()
	for _, want := range []string{
		"[hitlkit] ns: interrupt revealed (input): Agent Needs Your Input",
		"[hitlkit] ns: resumed with hello",
		"[hitlkit] ns: regenerating m2 from 3 messages",
		"[hitlkit] ns: active thread t2",
		`[hitlkit] ns: saved thread t2 as "Thread 1"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLoggingHooks_ResumePreview(t *testing.T) {
	var buf bytes.Buffer
	h := NewLoggingHooks(log.New(&buf, "", 0))

	_ = h.Resume(context.Background(), "ns", strings.Repeat("a", 150), nil)
	if !strings.Contains(buf.String(), strings.Repeat("a", 100)+"...") {
		t.Errorf("long response not truncated: %s", buf.String())
	}

	buf.Reset()
	_ = h.Resume(context.Background(), "ns", "x", errors.New("boom"))
	if !strings.Contains(buf.String(), "resume failed: boom") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestVerboseLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	h := NewVerboseLoggingHooks(log.New(&buf, "", 0))
	ctx := context.Background()

	_ = h.InterruptRevealed(ctx, "ns", interrupt.Presentation{
		Kind:    interrupt.PromptApproval,
		Title:   "Server Interrupt HITL",
		Command: "rm -rf build",
		Reason:  "clean",
	})
	_ = h.ThreadSaved(ctx, "ns", thread.Record{
		ID:      "t1",
		Name:    "Thread 1",
		SavedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	out := buf.String()
	for _, want := range []string{"Command: rm -rf build", "Reason: clean", "at=2025-01-02T03:04:05Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("verbose output missing %q:\n%s", want, out)
		}
	}
}

func TestMetricsHooks(t *testing.T) {
	metrics := map[string]float64{}
	h := NewMetricsHooks(func(name string, value float64, tags map[string]string) {
		metrics[name] += value
	})
	ctx := context.Background()

	_ = h.InterruptRevealed(ctx, "ns", interrupt.Presentation{Kind: interrupt.PromptApproval})
	_ = h.Resume(ctx, "ns", interrupt.ResponseApproved, nil)
	_ = h.Resume(ctx, "ns", interrupt.ResponseCancel, nil)
	_ = h.Resume(ctx, "ns", "free text", nil)
	_ = h.Resume(ctx, "ns", "x", errors.New("boom"))
	_ = h.Regenerate(ctx, "ns", "m", 4)

	want := map[string]float64{
		"hitl.interrupt.revealed":       1,
		"hitl.resume.approved":          1,
		"hitl.resume.cancelled":         1,
		"hitl.resume.text":              1,
		"hitl.resume.error":             1,
		"hitl.regenerate.kept_messages": 4,
	}
	for name, v := range want {
		if metrics[name] != v {
			t.Errorf("metric %s = %v, want %v", name, metrics[name], v)
		}
	}
}
