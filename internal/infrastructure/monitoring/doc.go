/*
Package monitoring provides Prometheus metrics for the operator console.

# Overview

Each Metrics value owns its registry, so a server instance and its tests
never collide on the global default registerer. Collectors cover HTTP
traffic, inference turns, upstream calls, render rendezvous outcomes,
companion helper calls and a few live gauges sampled at scrape time.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordTurn()
	metrics.RecordRender("annotated")

	timer := monitoring.NewTimer(metrics, "preview")
	// ... run helper ...
	timer.Stop("success")
*/
package monitoring
