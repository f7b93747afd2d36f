package ledger

import (
	"math"
	"sync"
	"testing"

	"github.com/gatewise-ai/gatewise/pkg/models"
)

func TestRecordAccumulates(t *testing.T) {
	l := New()

	est1 := models.CostEstimate{"low": 0.001, "high": 0.010}
	est2 := models.CostEstimate{"low": 0.002, "high": 0.020}

	total := l.Record(est1, "low", "high")
	if math.Abs(total-0.009) > 1e-12 {
		t.Errorf("expected 0.009 after first record, got %v", total)
	}

	total = l.Record(est2, "low", "high")
	if math.Abs(total-0.027) > 1e-12 {
		t.Errorf("expected 0.027 after second record, got %v", total)
	}
}

func TestRecordChosenHighestIsZeroDelta(t *testing.T) {
	l := New()
	est := models.CostEstimate{"low": 0.001, "high": 0.010}
	if total := l.Record(est, "high", "high"); total != 0 {
		t.Errorf("expected zero savings when highest tier chosen, got %v", total)
	}
}

func TestTotalDoesNotMutate(t *testing.T) {
	l := New()
	l.Record(models.CostEstimate{"low": 1, "high": 3}, "low", "high")
	if l.Total() != 2 || l.Total() != 2 {
		t.Errorf("Total changed between reads: %v", l.Total())
	}
}

func TestSnapshot(t *testing.T) {
	l := New()
	l.Record(models.CostEstimate{"low": 1, "high": 3}, "low", "high")
	l.Record(models.CostEstimate{"low": 1, "high": 3}, "high", "high")

	s := l.Snapshot()
	if s.RequestCount != 2 {
		t.Errorf("expected 2 requests, got %d", s.RequestCount)
	}
	if s.TotalSavings != 2 {
		t.Errorf("expected total 2, got %v", s.TotalSavings)
	}
}

func TestConcurrentRecords(t *testing.T) {
	l := New()
	est := models.CostEstimate{"low": 0.25, "high": 1.25}

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			l.Record(est, "low", "high")
		}()
	}
	wg.Wait()

	if got := l.Total(); math.Abs(got-100) > 1e-9 {
		t.Errorf("lost updates: expected 100, got %v", got)
	}
	if s := l.Snapshot(); s.RequestCount != n {
		t.Errorf("expected %d requests, got %d", n, s.RequestCount)
	}
}
