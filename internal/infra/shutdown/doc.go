// Package shutdown coordinates graceful termination and reload signals.
//
//	h := shutdown.NewHandler(30*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx) // returns after SIGINT/SIGTERM or ctx ends
//
// Hooks run in reverse registration order under a shared timeout. SIGHUP
// triggers reload hooks without stopping the process.
package shutdown
