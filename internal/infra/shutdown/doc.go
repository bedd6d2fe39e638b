// Package shutdown runs named cleanup hooks when the process is asked to
// stop, either by SIGINT/SIGTERM, a cancelled context or Trigger.
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("host", host.Shutdown)
//	err := h.Wait(ctx)
package shutdown
