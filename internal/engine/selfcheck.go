package engine

import (
	"fmt"
	"time"

	"github.com/andreluis2005/cognira/internal/domain"
)

// CheckResult is the outcome of one self-check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// SelfCheckReport summarizes a SelfCheck run.
type SelfCheckReport struct {
	Passed  bool          `json:"passed"`
	Results []CheckResult `json:"results"`
}

// SelfCheck runs a battery of integrity checks against e and its catalog.
// A panicking check is recorded as a failure.
func SelfCheck(e *Engine) SelfCheckReport {
	var results []CheckResult
	run := func(name string, fn func() (bool, string)) {
		res := CheckResult{Name: name}
		func() {
			defer func() {
				if r := recover(); r != nil {
					res.Passed, res.Detail = false, fmt.Sprintf("panic: %v", r)
				}
			}()
			res.Passed, res.Detail = fn()
		}()
		switch {
		case res.Passed:
			res.Detail = ""
		case res.Detail == "":
			res.Detail = "assertion failed"
		}
		results = append(results, res)
	}

	empty := domain.UserProgress{UserID: "self-check", Topics: map[string]domain.TopicProgress{}}

	run("prng determinism", func() (bool, string) {
		a, b := NewRNG(12345), NewRNG(12345)
		for i := 0; i < 20; i++ {
			if x, y := a.Float64(), b.Float64(); x != y {
				return false, fmt.Sprintf("draw %d: %v != %v", i, x, y)
			}
		}
		return true, ""
	})
	run("prng range", func() (bool, string) {
		r := NewRNG(99999)
		for i := 0; i < 1000; i++ {
			if v := r.Float64(); v < 0 || v >= 1 {
				return false, fmt.Sprintf("draw %d out of range: %v", i, v)
			}
		}
		return true, ""
	})
	run("hash determinism", func() (bool, string) {
		return HashString("test-session") == HashString("test-session"), ""
	})
	run("hash divergence", func() (bool, string) {
		return HashString("session-A") != HashString("session-B"), ""
	})
	run("status thresholds", func() (bool, string) {
		ok := TopicStatus(0, 0) == domain.StatusNotEvaluated &&
			TopicStatus(10, 20) == domain.StatusWeak &&
			TopicStatus(1, 39) == domain.StatusWeak &&
			TopicStatus(1, 40) == domain.StatusEvolving &&
			TopicStatus(1, 69) == domain.StatusEvolving &&
			TopicStatus(1, 70) == domain.StatusStrong
		return ok, ""
	})
	run("readiness of empty progress", func() (bool, string) {
		got := ReadinessScore(e.cat, empty)
		return got == 0, fmt.Sprintf("got %d", got)
	})
	run("validator accepts clean progress", func() (bool, string) {
		v := Validate(e.NewProgress("self-check"))
		return v.Valid, fmt.Sprint(v.Strings())
	})
	run("validator detects corruption", func() (bool, string) {
		bad := empty
		bad.ReadinessScore = -5
		return !Validate(bad).Valid, ""
	})
	run("interval table", func() (bool, string) {
		if err := checkIntervals(e.intervals); err != nil {
			return false, err.Error()
		}
		return true, ""
	})
	run("question index", func() (bool, string) {
		for _, q := range e.cat.Questions() {
			got, ok := e.cat.Question(q.ID)
			if !ok || got.ID != q.ID {
				return false, "missing " + q.ID
			}
		}
		return true, ""
	})
	run("seed determinism", func() (bool, string) {
		p := domain.UserProgress{Topics: map[string]domain.TopicProgress{
			"EC2": {TopicID: "EC2", Attempts: 5, Correct: 3, Accuracy: 60, Status: domain.StatusEvolving, MasteryLevel: 2},
		}}
		return ComposeSeed("sess-123", p, 3) == ComposeSeed("sess-123", p, 3), ""
	})
	run("seed divergence", func() (bool, string) {
		return ComposeSeed("A", empty, 0) != ComposeSeed("B", empty, 0) &&
			ComposeSeed("X", empty, 0) != ComposeSeed("X", empty, 1), ""
	})
	run("history cap", func() (bool, string) {
		big := make(map[string]domain.QuestionHistory, MaxHistorySize+100)
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < MaxHistorySize+100; i++ {
			big[fmt.Sprintf("q-%d", i)] = domain.QuestionHistory{LastAttempt: base.AddDate(0, 0, i%28)}
		}
		got := len(compressHistory(big, MaxHistorySize))
		return got == MaxHistorySize, fmt.Sprintf("kept %d", got)
	})

	report := SelfCheckReport{Passed: true, Results: results}
	for _, r := range results {
		if !r.Passed {
			report.Passed = false
			break
		}
	}
	return report
}
