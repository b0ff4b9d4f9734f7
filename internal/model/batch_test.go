package model

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("empty input reports zero everywhere", func(t *testing.T) {
		t.Parallel()

		run := Summarize(nil, 0)
		if run.Total != 0 {
			t.Errorf("expected total 0, got %d", run.Total)
		}
		if run.Percent(run.Available()) != 0 {
			t.Errorf("expected 0%%, got %v", run.Percent(run.Available()))
		}
		if run.Throughput() != 0 {
			t.Errorf("expected throughput 0, got %v", run.Throughput())
		}
		for _, s := range AllStatuses() {
			if _, ok := run.Counts[s]; !ok {
				t.Errorf("expected key for %s", s.Name())
			}
		}
	})

	t.Run("counts each status and the unavailable group", func(t *testing.T) {
		t.Parallel()

		statuses := []Status{
			StatusAvailable, StatusAvailable, StatusAvailable,
			StatusUnavailable, StatusTimeout, StatusConnectionFailed, StatusError,
			StatusNeedsManualCheck,
		}
		entries := make([]*Entry, len(statuses))
		for i, s := range statuses {
			entries[i] = &Entry{Name: "n", Link: "l", Status: s}
		}

		run := Summarize(entries, 2*time.Second)
		if run.Total != 8 {
			t.Fatalf("expected total 8, got %d", run.Total)
		}
		if run.Available() != 3 {
			t.Errorf("expected 3 available, got %d", run.Available())
		}
		if run.Unavailable() != 4 {
			t.Errorf("expected 4 unavailable, got %d", run.Unavailable())
		}
		if run.Count(StatusTimeout) != 1 {
			t.Errorf("expected 1 timeout, got %d", run.Count(StatusTimeout))
		}
		if run.NeedsManualCheck() != 1 {
			t.Errorf("expected 1 manual, got %d", run.NeedsManualCheck())
		}
		if run.Residual() != 0 {
			t.Errorf("expected residual 0, got %d", run.Residual())
		}
		if got := run.Percent(run.Available()); got != 37.5 {
			t.Errorf("expected 37.5%%, got %v", got)
		}
		if got := run.Throughput(); got != 4 {
			t.Errorf("expected throughput 4/s, got %v", got)
		}

		sum := 0
		for _, c := range run.Counts {
			sum += c
		}
		if sum != run.Total {
			t.Errorf("counts sum %d != total %d", sum, run.Total)
		}
	})

	t.Run("untested entries are residual", func(t *testing.T) {
		t.Parallel()

		run := Summarize([]*Entry{NewEntry("a", "http://a")}, time.Second)
		if run.Residual() != 1 {
			t.Errorf("expected residual 1, got %d", run.Residual())
		}
	})

	t.Run("percent rounds to one decimal", func(t *testing.T) {
		t.Parallel()

		run := &BatchRun{Total: 3}
		if got := run.Percent(1); got != 33.3 {
			t.Errorf("expected 33.3, got %v", got)
		}
		if got := run.Percent(2); got != 66.7 {
			t.Errorf("expected 66.7, got %v", got)
		}
	})
}
