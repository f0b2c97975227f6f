// Package api provides the JSON endpoints of a hitlkit session.
//
// All responses are wrapped as {"data": ...} or {"error": {"code", "message"}}.
//
// # Endpoints
//
// Status:
//   - GET /status - Agent status summary
//   - GET /events - SSE stream of agent events
//
// Threads:
//   - GET /thread - Active thread id
//   - POST /thread/new - Switch to a fresh thread
//   - POST /thread/load - Switch to {"id"}
//   - GET /threads - Saved threads
//   - POST /threads - Save the active thread as {"name"}
//   - DELETE /threads/{id} - Remove a saved thread
//
// Messages:
//   - GET /messages - History with rendered HTML
//   - POST /messages - Send {"content"} and run the agent
//   - POST /messages/{id}/regenerate - Regenerate an assistant message
//
// Interrupts:
//   - GET /interrupt - Phase and revealed prompt
//   - POST /interrupt/respond - Answer with {"response"}
//   - POST /interrupt/approve - Answer APPROVED
//   - POST /interrupt/cancel - Answer CANCEL
//
// State:
//   - GET /state - Shared agent state
//   - POST /state/counter/increment
//   - POST /state/counter/decrement
//   - POST /state/status - Set {"status"}
package api
