package core

import (
	"context"
	"fmt"
)

const (
	// DefaultHistoryLimit is used when a caller asks for a non-positive limit.
	DefaultHistoryLimit = 50

	// MaxHistoryLimit caps how many edits one request can return.
	MaxHistoryLimit = 500

	// historyCapacity is how many edits the service keeps in memory when no
	// journal can be read back.
	historyCapacity = 100
)

// EditHistory is a Journal that can list what it recorded.
type EditHistory interface {
	RecentEdits(ctx context.Context, limit int) ([]EditOutcome, error)
}

// RecentEdits returns up to limit edits, newest first.
//
// When the configured journal can be read back it is the source; otherwise
// the edits made by this process are returned from memory.
func (s *Service) RecentEdits(ctx context.Context, limit int) ([]EditOutcome, error) {
	limit = clampHistoryLimit(limit)

	if h, ok := s.journal.(EditHistory); ok {
		edits, err := h.RecentEdits(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("read edit journal: %w", err)
		}
		return edits, nil
	}

	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	n := min(limit, len(s.history))
	edits := make([]EditOutcome, 0, n)
	for i := len(s.history) - 1; i >= len(s.history)-n; i-- {
		edits = append(edits, s.history[i])
	}
	return edits, nil
}

// remember keeps outcome in the in-memory history, dropping the oldest entry
// once the history is full.
func (s *Service) remember(outcome EditOutcome) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	if len(s.history) == historyCapacity {
		copy(s.history, s.history[1:])
		s.history = s.history[:historyCapacity-1]
	}
	s.history = append(s.history, outcome)
}

func clampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}
