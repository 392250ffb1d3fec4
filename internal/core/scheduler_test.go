package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePruner struct {
	mu           sync.Mutex
	editCutoffs  []time.Time
	snapCutoffs  []time.Time
	editsErr     error
	deletedEdits int64
}

func (f *fakePruner) PruneEdits(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editCutoffs = append(f.editCutoffs, before)
	return f.deletedEdits, f.editsErr
}

func (f *fakePruner) PruneSnapshots(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapCutoffs = append(f.snapCutoffs, before)
	return 2, nil
}

func (f *fakePruner) runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapCutoffs)
}

func TestPruneConfig_Defaults(t *testing.T) {
	got := PruneConfig{}.withDefaults()
	if got.Retention != defaultRetention || got.Interval != defaultPruneInterval {
		t.Errorf("withDefaults() = %+v", got)
	}

	custom := PruneConfig{Retention: time.Hour, Interval: time.Minute}.withDefaults()
	if custom.Retention != time.Hour || custom.Interval != time.Minute {
		t.Errorf("withDefaults() overrode explicit values: %+v", custom)
	}
}

func TestRunPruneJob(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(Paths{})
	svc.now = func() time.Time { return now }

	tests := []struct {
		name          string
		editsErr      error
		wantEdits     int64
		wantSnapshots int64
	}{
		{"both succeed", nil, 7, 2},
		{"edit prune failure still prunes snapshots", errors.New("boom"), 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePruner{editsErr: tt.editsErr}
			if tt.editsErr == nil {
				p.deletedEdits = 7
			}

			edits, snaps := svc.runPruneJob(context.Background(), p, PruneConfig{Retention: 48 * time.Hour})
			if edits != tt.wantEdits || snaps != tt.wantSnapshots {
				t.Errorf("runPruneJob() = %d, %d, want %d, %d", edits, snaps, tt.wantEdits, tt.wantSnapshots)
			}

			wantCutoff := now.Add(-48 * time.Hour)
			if len(p.editCutoffs) != 1 || !p.editCutoffs[0].Equal(wantCutoff) {
				t.Errorf("edit cutoffs = %v, want [%v]", p.editCutoffs, wantCutoff)
			}
			if len(p.snapCutoffs) != 1 || !p.snapCutoffs[0].Equal(wantCutoff) {
				t.Errorf("snapshot cutoffs = %v, want [%v]", p.snapCutoffs, wantCutoff)
			}
		})
	}
}

func TestStartJournalPruner_StopsOnCancel(t *testing.T) {
	svc := NewService(Paths{})
	p := &fakePruner{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartJournalPruner(ctx, p, PruneConfig{Retention: time.Hour, Interval: 10 * time.Millisecond})
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for p.runs() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pruner did not stop after cancel")
	}

	if p.runs() < 2 {
		t.Errorf("runs = %d, want at least 2 (startup plus one tick)", p.runs())
	}
}
