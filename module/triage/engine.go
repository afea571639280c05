package triage

import (
	"sort"
	"strings"

	"NeuroQ/tools/errs"
)

const (
	baseConfidence = 0.5
	perHit         = 0.09
	maxHits        = 5
)

// Engine is the keyword heuristic. It is stateless and safe for concurrent use.
type Engine struct {
	score func(lower string) (label string, hits int)
}

func NewEngine() *Engine {
	return &Engine{score: classify}
}

func (e *Engine) Predict(in Input) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Result: SafeDefault(),
				Status: StatusDefaulted,
				Reason: errs.ErrPanic(r).Error(),
			}
		}
	}()

	lower := strings.ToLower(in.Text)
	label, hits := e.score(lower)

	conf := Confidence(hits)
	sev := severity(conf, in.Mood, in.Stress)
	return Outcome{
		Result: Result{
			Label:          label,
			Confidence:     conf,
			Severity:       sev,
			Recommendation: recommendationFor(label, sev),
			NextSteps:      nextStepsFor(sev),
			Emergency:      sev == Severe || containsAny(lower, emergencyPhrases),
		},
		Status:   StatusClassified,
		Features: tokens(lower, in.Symptoms),
	}
}

// classify returns the best scoring label; ties go to the earlier label.
func classify(lower string) (string, int) {
	best, bestHits := NoDisorder, 0
	for _, l := range labelTable {
		n := 0
		for _, kw := range l.keywords {
			if strings.Contains(lower, kw) {
				n++
			}
		}
		if n > bestHits {
			best, bestHits = l.label, n
		}
	}
	return best, bestHits
}

func Confidence(hits int) float64 {
	if hits > maxHits {
		hits = maxHits
	}
	if hits < 0 {
		hits = 0
	}
	return baseConfidence + float64(hits)*perHit
}

// severity applies the thresholds; a zero rating counts as not given.
func severity(conf float64, mood, stress *int) Severity {
	m, hasMood := rated(mood)
	st, hasStress := rated(stress)
	switch {
	case conf > 0.8 || (hasMood && m <= 3) || (hasStress && st >= 8):
		return Severe
	case conf > 0.6 || (hasMood && m <= 5) || (hasStress && st >= 6):
		return Moderate
	default:
		return Mild
	}
}

func rated(v *int) (int, bool) {
	if v == nil || *v == 0 {
		return 0, false
	}
	return *v, true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func tokens(lower string, symptoms []string) []string {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(lower) {
		set[t] = struct{}{}
	}
	for _, s := range symptoms {
		set[strings.ToLower(s)] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
