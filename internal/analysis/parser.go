package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/fedor-resh/bite/internal/apperr"
)

// Result is the parsed model output. Nil numeric fields were absent or
// unreadable in the payload.
type Result struct {
	Name       string
	Calories   *float64 // kcal per 100 g
	Protein    *float64 // g per 100 g
	Weight     *float64 // grams
	Confidence string   // low, medium, high or empty
}

// Parse extracts the nutrition object from raw model text. The object may be
// wrapped in prose or a fenced code block; candidates are tried in order
// until one carries a food_name.
func Parse(raw string) (Result, error) {
	candidates := extractJSON(raw)
	if len(candidates) == 0 {
		return Result{}, apperr.Parse("no JSON object in model output")
	}

	var lastErr error
	for _, payload := range candidates {
		res, err := parseObject(payload)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return Result{}, lastErr
}

func parseObject(payload string) (Result, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return Result{}, apperr.Parse("invalid JSON in model output: %v", err)
	}

	var name string
	if v, ok := fields["food_name"]; ok {
		if err := json.Unmarshal(v, &name); err != nil {
			return Result{}, apperr.Parse("food_name is not a string: %v", err)
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{}, apperr.Parse("food_name missing")
	}

	res := Result{
		Name:     name,
		Calories: number(fields["calories"]),
		Protein:  number(fields["protein"]),
		Weight:   number(fields["weight"]),
	}

	var confidence string
	if v, ok := fields["confidence"]; ok && json.Unmarshal(v, &confidence) == nil {
		switch c := strings.ToLower(strings.TrimSpace(confidence)); c {
		case "low", "medium", "high":
			res.Confidence = c
		}
	}
	return res, nil
}

// number accepts a JSON number or a numeric string. Anything else, including
// negatives and non-finite values, is treated as absent.
func number(v json.RawMessage) *float64 {
	if len(v) == 0 {
		return nil
	}

	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	return &f
}

// extractJSON lists every balanced object in raw: the fenced block first,
// then one per '{' in order of appearance.
func extractJSON(raw string) []string {
	var out []string
	if start := strings.Index(raw, "```"); start >= 0 {
		body := raw[start+3:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			// Drop the language tag, e.g. ```json.
			if !strings.Contains(body[:nl], "{") {
				body = body[nl+1:]
			}
		}
		if end := strings.Index(body, "```"); end >= 0 {
			if i := strings.IndexByte(body[:end], '{'); i >= 0 {
				if obj, ok := objectAt(body[:end], i); ok {
					out = append(out, obj)
				}
			}
		}
	}

	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' {
			continue
		}
		if obj, ok := objectAt(raw, i); ok {
			out = append(out, obj)
		}
	}
	return out
}

// objectAt returns the text from s[start] ('{') to its matching '}',
// skipping braces inside string literals.
func objectAt(s string, start int) (string, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
