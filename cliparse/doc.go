// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration from CLI flags and environment
variables.

Flags take precedence; environment variables fill whatever the flags
leave empty:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Only the database URL is required. Provider API keys are optional by
design: the gateway treats a missing key as "backend unavailable" and
synthesizes answers, so a keyless dev setup still exercises the whole
pipeline.
*/
package cliparse
