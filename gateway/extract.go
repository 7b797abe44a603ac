// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mirrorpanel/server/models"
)

// ErrUnparseable is the named failure mode of answer extraction. Callers
// treat it as the signal to fall back to mock synthesis.
var ErrUnparseable = errors.New("no parseable answer set in response")

// rawAnswerSet mirrors the JSON shape models are instructed to return,
// with tolerant field decoding: models drift between numbers and strings
// for question_number, and between strings and arrays for answer.
type rawAnswerSet struct {
	Answers    []rawAnswer `json:"answers"`
	Confidence *float64    `json:"confidence"`
}

type rawAnswer struct {
	QuestionNumber flexInt    `json:"question_number"`
	Answer         flexString `json:"answer"`
}

// flexInt decodes a JSON number or a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	// Tolerate "3.0" style numbers
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		s = s[:idx]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("question_number %q is not numeric", s)
	}
	*f = flexInt(n)
	return nil
}

// flexString decodes a JSON string, number, boolean, or array of any of
// those. Arrays are joined with "; " to match the multi-select answer
// format the prompts demand.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexString(flattenValue(v))
	return nil
}

func flattenValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, flattenValue(item))
		}
		return strings.Join(parts, "; ")
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// ExtractAnswerSet pulls a structured answer set out of free-text model
// output. Two stages: first the best-effort scan for the first balanced
// {...} span, then a parse of the entire body. Both failing yields
// ErrUnparseable.
func ExtractAnswerSet(body string) (models.StructuredAnswerSet, error) {
	if span, ok := firstJSONObject(body); ok {
		if set, err := parseAnswerSet(span); err == nil {
			return set, nil
		}
	}

	if set, err := parseAnswerSet(body); err == nil {
		return set, nil
	}

	return models.StructuredAnswerSet{}, ErrUnparseable
}

func parseAnswerSet(text string) (models.StructuredAnswerSet, error) {
	var raw rawAnswerSet
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return models.StructuredAnswerSet{}, err
	}
	if len(raw.Answers) == 0 {
		return models.StructuredAnswerSet{}, fmt.Errorf("answer set is empty")
	}

	set := models.StructuredAnswerSet{
		Answers:    make([]models.StructuredAnswer, 0, len(raw.Answers)),
		Confidence: raw.Confidence,
	}
	for _, a := range raw.Answers {
		set.Answers = append(set.Answers, models.StructuredAnswer{
			QuestionNumber: int(a.QuestionNumber),
			Answer:         string(a.Answer),
		})
	}
	return set, nil
}

// firstJSONObject returns the first balanced top-level {...} span in the
// text. Brace counting skips braces inside JSON string literals.
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
