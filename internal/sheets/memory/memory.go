package memory

import (
	"context"
	"fmt"
	"sync"

	"costmanager/internal/core"
	ports "costmanager/internal/sheets"
)

// Sheet is an in-process CostWriter with injectable failures.
type Sheet struct {
	mu   sync.Mutex
	rows [][]any
	err  error
}

var _ ports.CostWriter = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{}
}

// FailWith makes subsequent appends return err. Pass nil to recover.
func (s *Sheet) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// AppendCost implements ports.CostWriter.
func (s *Sheet) AppendCost(_ context.Context, messageID string, item core.CostItem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.rows = append(s.rows, ports.Row(messageID, item))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the appended rows.
func (s *Sheet) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}
