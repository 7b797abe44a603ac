// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package simulation

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/mirrorpanel/server/catalog"
	"github.com/mirrorpanel/server/models"
)

// Classification thresholds. Fixed by design, not configurable.
const (
	highThreshold   = 0.90
	mediumThreshold = 0.70
)

func classify(ratio float64) (label, color string) {
	switch {
	case ratio >= highThreshold:
		return models.StabilityHigh, models.ColorGreen
	case ratio >= mediumThreshold:
		return models.StabilityMedium, models.ColorYellow
	default:
		return models.StabilityLow, models.ColorRed
	}
}

// ComputeStability aggregates every answer set for the survey across
// runs and models and scores how stable each question's answers are.
//
// Per persona and question, the agreement ratio is the share of that
// persona's runs agreeing on the most frequent answer. A question's
// stability is the share of personas at or above the High threshold;
// overall stability is the share of non-open-ended questions at or
// above it. Open-ended questions appear in the per-question list
// flagged excluded but never enter the overall denominator.
//
// A persona with a single run scores 1.0 on every question it answered.
// That is deliberate: stability without repetition is treated as maximal
// confidence, so single-run personas bias the overall score upward.
func ComputeStability(db *sql.DB, surveyID string) (models.ConfidenceReport, error) {
	results, err := loadResults(db, surveyID)
	if err != nil {
		return models.ConfidenceReport{}, err
	}
	if len(results) == 0 {
		return models.ConfidenceReport{}, fmt.Errorf("survey %s has no simulation results: %w", surveyID, catalog.ErrNotFound)
	}

	questions, err := catalog.Questions(db, surveyID)
	if err != nil {
		return models.ConfidenceReport{}, err
	}

	// Flatten result rows into per-persona, per-question answer lists.
	// Each result row is one run's answer set for its persona.
	answered := map[string]map[int][]string{}
	tuples := 0
	for _, res := range results {
		byQuestion, ok := answered[res.PersonaID]
		if !ok {
			byQuestion = map[int][]string{}
			answered[res.PersonaID] = byQuestion
		}
		for _, a := range res.Answers {
			byQuestion[a.QuestionNumber] = append(byQuestion[a.QuestionNumber], a.Answer)
			tuples++
		}
	}

	// Per-persona agreement ratios, grouped by question number.
	ratios := map[int][]float64{}
	for _, byQuestion := range answered {
		for qNum, answers := range byQuestion {
			if len(answers) == 0 {
				continue
			}
			ratios[qNum] = append(ratios[qNum], agreementRatio(answers))
		}
	}

	report := models.ConfidenceReport{
		SurveyID:    surveyID,
		PerQuestion: []models.QuestionStability{},
	}

	scoredQuestions := 0
	stableQuestions := 0
	for _, q := range questions {
		personaRatios, ok := ratios[q.Number]
		if !ok {
			// No run answered this question; it has no denominator.
			continue
		}

		high := 0
		for _, ratio := range personaRatios {
			if ratio >= highThreshold {
				high++
			}
		}
		stability := float64(high) / float64(len(personaRatios))
		label, color := classify(stability)

		report.PerQuestion = append(report.PerQuestion, models.QuestionStability{
			QuestionNumber: q.Number,
			Stability:      stability,
			Label:          label,
			Color:          color,
			PersonaCount:   len(personaRatios),
			Excluded:       q.IsOpenEnded(),
		})

		if !q.IsOpenEnded() {
			scoredQuestions++
			if stability >= highThreshold {
				stableQuestions++
			}
		}
	}

	overall := 0.0
	if scoredQuestions > 0 {
		overall = float64(stableQuestions) / float64(scoredQuestions)
	}
	report.Overall.Stability = overall
	report.Overall.Label, report.Overall.Color = classify(overall)

	slog.Info("stability computed",
		"survey_id", surveyID,
		"result_rows", humanize.Comma(int64(len(results))),
		"answer_tuples", humanize.Comma(int64(tuples)),
		"overall", report.Overall.Label,
	)

	return report, nil
}

// agreementRatio is the frequency of the most common answer value over
// the runs that answered the question.
func agreementRatio(answers []string) float64 {
	counts := map[string]int{}
	max := 0
	for _, a := range answers {
		counts[a]++
		if counts[a] > max {
			max = counts[a]
		}
	}
	return float64(max) / float64(len(answers))
}
