package sequence

import (
	"context"
	"math"
	"sync"
)

// Memory is an in-process Generator used by unit tests and single-node
// deployments without a database.
type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemory creates an empty in-memory Generator.
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]int64)}
}

func (m *Memory) Next(ctx context.Context, definitionName string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.counters[definitionName]
	if current == math.MaxInt64 {
		return 0, ErrExhausted
	}

	current++
	m.counters[definitionName] = current
	return current, nil
}
