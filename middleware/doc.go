// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and JSON helpers.

# Request Logging

WithLogging wraps a handler func and logs request start/completion with
method, path, and duration:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusNotFound, "Survey not found")
	middleware.ParseJSONBody(r, &req)

# CORS

CORS wraps the whole mux to allow the dashboard frontend's cross-origin
polling, including OPTIONS preflight handling.
*/
package middleware
