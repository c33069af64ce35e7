// Package store is the storage port for processed thoughts.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shubh-37/minddump/internal/models"
)

// ThoughtStore saves processed thoughts and lists them newest first.
type ThoughtStore interface {
	Save(ctx context.Context, t *models.Thought) error
	List(ctx context.Context, limit, offset int) ([]*models.Thought, int, error)
}

// Noop keeps nothing; List is always empty.
type Noop struct{}

func (Noop) Save(context.Context, *models.Thought) error { return nil }

func (Noop) List(context.Context, int, int) ([]*models.Thought, int, error) {
	return []*models.Thought{}, 0, nil
}

// Memory keeps thoughts for the life of the process.
type Memory struct {
	mu       sync.RWMutex
	thoughts []*models.Thought
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, t *models.Thought) error {
	cp := *t
	cp.Actions = append([]string(nil), t.Actions...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.thoughts = append(m.thoughts, &cp)
	sort.SliceStable(m.thoughts, func(i, j int) bool {
		return m.thoughts[i].CreatedAt.After(m.thoughts[j].CreatedAt)
	})
	return nil
}

func (m *Memory) List(_ context.Context, limit, offset int) ([]*models.Thought, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := len(m.thoughts)
	out := []*models.Thought{}
	if offset >= total || limit <= 0 {
		return out, total, nil
	}
	end := min(offset+limit, total)
	for _, t := range m.thoughts[offset:end] {
		cp := *t
		out = append(out, &cp)
	}
	return out, total, nil
}
