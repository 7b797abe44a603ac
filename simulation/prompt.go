// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package simulation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mirrorpanel/server/models"
)

// renderProfile serializes a demographic profile with deterministic key
// order so identical personas always produce identical prompts.
func renderProfile(profile map[string]string) string {
	if len(profile) == 0 {
		return "(no demographic details)"
	}
	keys := make([]string, 0, len(profile))
	for k := range profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "- %s: %s\n", k, profile[k])
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatInstruction states the machine-checkable answer format for a
// question type. The cleaning step enforces exactly what these demand.
func formatInstruction(q models.Question) string {
	switch q.Type {
	case models.TypeMultiSelect:
		return "Provide one or more options separated by semicolons, using EXACTLY the provided option text."
	case models.TypeRatingScale:
		return "Use EXACTLY one of the provided numbers."
	case models.TypeSingleSelect:
		return "Use EXACTLY one of the provided options."
	default:
		return "Write a short, realistic response."
	}
}

// BuildQuestionPrompt produces the persona-conditioned prompt for a
// single question, used by the replay engine. The "exactly 1 answer"
// instruction is the contract mock synthesis reads.
func BuildQuestionPrompt(persona models.Persona, q models.Question) string {
	var sb strings.Builder

	sb.WriteString("You are simulating a survey respondent. Stay fully in character.\n\n")
	fmt.Fprintf(&sb, "Respondent archetype: %s\n", persona.Archetype)
	sb.WriteString("Demographic profile:\n")
	sb.WriteString(renderProfile(persona.Profile))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Question %d: %s\n", q.Number, q.Text)
	if len(q.Options) > 0 {
		fmt.Fprintf(&sb, "Options: %s\n", strings.Join(q.Options, " | "))
	}
	fmt.Fprintf(&sb, "%s\n\n", formatInstruction(q))

	fmt.Fprintf(&sb, "Respond with a JSON object containing exactly 1 answer, in this shape:\n")
	fmt.Fprintf(&sb, `{"answers":[{"question_number":%d,"answer":"<your answer>"}]}`, q.Number)
	sb.WriteString("\nDo not include any text outside the JSON object.")

	return sb.String()
}

// BuildReplicationPrompt produces the format-constrained prompt the
// cross-model replicator sends: the full numbered question list plus the
// persona identity copied verbatim from the baseline result.
func BuildReplicationPrompt(surveyTitle, audience, archetype string, profile map[string]string, questions []models.Question) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are simulating one respondent completing the survey %q.\n", surveyTitle)
	if audience != "" {
		fmt.Fprintf(&sb, "Target audience: %s\n", audience)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Respondent archetype: %s\n", archetype)
	sb.WriteString("Demographic profile:\n")
	sb.WriteString(renderProfile(profile))
	sb.WriteString("\n\nAnswer every question below as this respondent.\n\n")

	for _, q := range questions {
		fmt.Fprintf(&sb, "Question %d: %s\n", q.Number, q.Text)
		if len(q.Options) > 0 {
			fmt.Fprintf(&sb, "Options: %s\n", strings.Join(q.Options, " | "))
		}
		fmt.Fprintf(&sb, "%s\n\n", formatInstruction(q))
	}

	fmt.Fprintf(&sb, "Return a JSON object with exactly %d answers:\n", len(questions))
	sb.WriteString(`{"answers":[{"question_number":1,"answer":"..."},{"question_number":2,"answer":"..."}, ...]}`)
	sb.WriteString("\n\nValidation checklist before you respond:\n")
	fmt.Fprintf(&sb, "- The answers array contains exactly %d entries.\n", len(questions))
	sb.WriteString("- Each question_number matches the question it answers.\n")
	sb.WriteString("- No answer is ever left blank.\n")
	sb.WriteString("- When uncertain, default to the first listed option.\n")
	sb.WriteString("- No text appears outside the JSON object.")

	return sb.String()
}
