// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package gateway provides a uniform interface to heterogeneous AI
completion backends.

# Dispatch

Model names resolve to a Backend by case-insensitive substring match:

	"OpenAI", "gpt-4o"        → BackendOpenAI
	"Claude", "Anthropic"     → BackendAnthropic
	"Gemini", "Google"        → BackendGemini
	anything else             → BackendMock

# Contract

	gw := gateway.New(cfg)
	set := gw.Generate(ctx, "Claude", prompt)

Generate never fails. In order of preference:

 1. Real provider call, answers extracted from the response.
 2. Mock synthesis when the provider is unreachable, the API key is
    missing, the response is non-2xx, or no JSON answer set can be
    extracted.

Downstream code therefore never handles a "no answer" case, and a
transient provider outage cannot make simulated respondents vanish from
a run.

# Extraction

Model output is free text. ExtractAnswerSet runs a two-stage parse:
scan for the first balanced {...} span, then try the whole body. Field
decoding tolerates string/number drift in question_number and
string/array drift in answer.

# Rate Limiting

Each provider family has its own rate.Limiter spaced at the configured
replication delay, so sequential calls to one provider respect its rate
limits while calls to different providers do not block each other. The
mock path is never throttled.
*/
package gateway
