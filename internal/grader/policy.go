package grader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pavelanni/aptitude/internal/model"
)

// The practice site colours percentages with two different rules depending on where
// they are shown. Both are kept as named policies.
var (
	// PolicyResults: >= 60 pass, [40, 60) borderline, below 40 fail.
	PolicyResults = model.Thresholds{PassMin: 60, BorderlineMin: 40}
	// PolicySummary: > 70 pass, [40, 70] borderline, below 40 fail.
	PolicySummary = model.Thresholds{PassMin: 71, BorderlineMin: 40}
)

var namedPolicies = map[string]model.Thresholds{
	"results": PolicyResults,
	"summary": PolicySummary,
}

// Classify maps a 0-100 percentage onto a severity band.
func Classify(percent int, t model.Thresholds) model.Severity {
	switch {
	case percent >= t.PassMin:
		return model.SeverityPass
	case percent >= t.BorderlineMin:
		return model.SeverityBorderline
	default:
		return model.SeverityFail
	}
}

// ParsePolicy accepts a policy name ("results", "summary") or an explicit
// "PASS/BORDERLINE" pair such as "75/50".
func ParsePolicy(s string) (model.Thresholds, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if t, ok := namedPolicies[s]; ok {
		return t, nil
	}
	passRaw, borderRaw, ok := strings.Cut(s, "/")
	if !ok {
		return model.Thresholds{}, fmt.Errorf("%q: %w", s, model.ErrUnknownPolicy)
	}
	pass, err := strconv.Atoi(strings.TrimSpace(passRaw))
	if err != nil {
		return model.Thresholds{}, fmt.Errorf("%q: %w", s, model.ErrUnknownPolicy)
	}
	border, err := strconv.Atoi(strings.TrimSpace(borderRaw))
	if err != nil {
		return model.Thresholds{}, fmt.Errorf("%q: %w", s, model.ErrUnknownPolicy)
	}
	if border < 0 || pass > 100 || border > pass {
		return model.Thresholds{}, fmt.Errorf("%q: thresholds must satisfy 0 <= borderline <= pass <= 100: %w", s, model.ErrUnknownPolicy)
	}
	return model.Thresholds{PassMin: pass, BorderlineMin: border}, nil
}
