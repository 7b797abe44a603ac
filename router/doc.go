// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines the HTTP route table using Go 1.22+ method
routing.

	mux := router.NewRouter(db, cfg, gateway.New(cfg))

Routes:

	GET  /health
	POST /surveys/{id}/simulations/rerun
	GET  /surveys/{id}/simulations
	GET  /simulations/{runId}/progress
	POST /surveys/{id}/simulations/replicate
	GET  /surveys/{id}/confidence
	GET  /

Every route is wrapped with request logging. The gateway is injected so
tests route through fake backends.
*/
package router
