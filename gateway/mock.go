// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gateway

import (
	"regexp"
	"strconv"

	"github.com/mirrorpanel/server/models"
)

// answerCountPattern matches the explicit "exactly N answers" instruction
// the orchestrator embeds in every prompt. It is the contract that lets
// mock synthesis produce a set of the right size without parsing the
// question list.
var answerCountPattern = regexp.MustCompile(`(?i)exactly\s+(\d+)\s+answers?`)

// mockPools holds the canned answers each backend family cycles through.
// The pools differ so replicated rows remain distinguishable per model in
// downstream comparisons.
var mockPools = map[Backend][]string{
	BackendOpenAI: {
		"Strongly agree",
		"I usually pick the first option that fits",
		"3",
		"Quality matters more than price to me",
	},
	BackendAnthropic: {
		"Agree",
		"It depends on the situation, but mostly yes",
		"4",
		"I care about long-term value",
	},
	BackendGemini: {
		"Somewhat agree",
		"Convenience is the deciding factor for me",
		"3",
		"I compare a few alternatives first",
	},
	BackendMock: {
		"Yes",
		"No strong preference",
		"3",
		"Sounds reasonable to me",
	},
}

// PromptAnswerCount reads the question count advertised by the prompt.
// Prompts that omit the instruction default to a single answer.
func PromptAnswerCount(prompt string) int {
	m := answerCountPattern.FindStringSubmatch(prompt)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// MockAnswerSet synthesizes a complete answer set for the prompt,
// cycling the backend family's canned pool. This is the guarantee behind
// the Gateway contract: every caller gets exactly the advertised number
// of answers even when no provider is reachable.
func MockAnswerSet(backend Backend, prompt string) models.StructuredAnswerSet {
	pool, ok := mockPools[backend]
	if !ok || len(pool) == 0 {
		pool = mockPools[BackendMock]
	}

	n := PromptAnswerCount(prompt)
	set := models.StructuredAnswerSet{
		Answers:   make([]models.StructuredAnswer, 0, n),
		Synthetic: true,
	}
	for i := 0; i < n; i++ {
		set.Answers = append(set.Answers, models.StructuredAnswer{
			QuestionNumber: i + 1,
			Answer:         pool[i%len(pool)],
		})
	}
	return set
}
