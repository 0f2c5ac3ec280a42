/*
Package resilience guards calls to helper processes with a circuit breaker.

# Overview

Helper commands (screen preview, debug executor) are spawned on demand from
dashboard requests. When one keeps failing to start or keeps timing out,
the breaker opens and further calls fail fast with ErrCircuitOpen instead of
piling up processes. After a cooldown one probe call is let through; its
outcome decides whether the breaker closes again.

# Usage

	breaker := resilience.New("preview", resilience.Settings{
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("breaker", zap.String("name", name), zap.Stringer("to", to))
		},
	})

	out, err := resilience.Do(breaker, func() (Output, error) {
		return run(ctx)
	})

# States

	Closed --[threshold failures]-> Open --[cooldown]-> Half-Open --[success]-> Closed
	                                                        |
	                                                    [failure]
	                                                        v
	                                                       Open
*/
package resilience
