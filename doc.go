// Package hitlkit is the client-side half of a human-in-the-loop chat with a
// remote agent.
//
// A Session drives one agent handle (see package agui) inside one storage
// namespace. It holds back interrupt prompts until the run that raised them
// has settled, answers them with a single resume run, regenerates assistant
// responses from a truncated history, and keeps the active thread id and a
// catalog of saved threads in a kv.Store.
//
// # Quick Start
//
//	store := kv.NewMemory()
//	session, err := hitlkit.New(ctx, agent, hitlkit.Config{
//	    Namespace: hitlkit.PatternDirect.Namespace,
//	    Store:     store,
//	})
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	_ = session.Send(ctx, "delete the build cache")
//
//	if prompt, ok := session.Prompt(); ok && prompt.Kind == interrupt.PromptApproval {
//	    _ = session.Approve(ctx)
//	}
//
// # Interrupts
//
// The backend raises an interrupt with a CUSTOM event named "on_interrupt".
// The payload is parsed once into an interrupt.Value and buffered; it becomes
// visible through Session.Interrupt and Session.Prompt only after the run's
// RUN_FINALIZED event. A new run discards anything buffered or shown.
//
// Approvals whose action is recognized (by default "server_command_approval")
// are answered with Approve or Cancel, which send the literal responses
// "APPROVED" and "CANCEL". Every other interrupt is answered with Respond.
//
// # Threads
//
// The active thread id is stored under the namespace key and created on first
// use. Saved threads live under "<namespace>-saved". Switching threads with
// NewThread or LoadThread drops any shown interrupt and, when the agent
// implements agui.ThreadBinder, points the agent at the new thread.
//
// # Hooks
//
// Register hooks for observability:
//
//	registry := hooks.NewRegistry()
//	registry.Register(hooks.DefaultLoggingHooks())
//	session, _ := hitlkit.New(ctx, agent, cfg, hitlkit.WithHooks(registry))
package hitlkit
