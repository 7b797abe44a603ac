// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mirrorpanel/server/models"
)

// ErrNotFound is returned when a survey, run, or result set does not
// exist. Handlers translate it to a 404; it is never retried.
var ErrNotFound = errors.New("not found")

// GetSurvey loads survey metadata.
func GetSurvey(db *sql.DB, surveyID string) (models.Survey, error) {
	var s models.Survey
	err := db.QueryRow(`
		SELECT id, title, audience_description, created_at
		FROM survey
		WHERE id = $1
	`, surveyID).Scan(&s.ID, &s.Title, &s.AudienceDescription, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return models.Survey{}, fmt.Errorf("survey %s: %w", surveyID, ErrNotFound)
	}
	if err != nil {
		return models.Survey{}, fmt.Errorf("failed to query survey: %w", err)
	}

	return s, nil
}

// Questions returns the survey's questions ordered by number. The view
// is read-only: question authoring belongs to the frontend, and a
// question is immutable once a simulation run references it.
func Questions(db *sql.DB, surveyID string) ([]models.Question, error) {
	rows, err := db.Query(`
		SELECT id, survey_id, number, text, qtype, options
		FROM question
		WHERE survey_id = $1
		ORDER BY number
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		var optionsJSON string
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Number, &q.Text, &q.Type, &optionsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return nil, fmt.Errorf("question %s has malformed options: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}

	return questions, nil
}
