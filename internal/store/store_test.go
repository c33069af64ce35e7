package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubh-37/minddump/internal/models"
)

func TestNoopIsAlwaysEmpty(t *testing.T) {
	var s ThoughtStore = Noop{}
	require.NoError(t, s.Save(context.Background(), &models.Thought{ID: "1"}))

	list, total, err := s.List(context.Background(), 50, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
	assert.Zero(t, total)
}

func TestMemoryListsNewestFirst(t *testing.T) {
	s := NewMemory()
	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(context.Background(), &models.Thought{
			ID:        fmt.Sprint(i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, total, err := s.List(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "3", page[0].ID)
	assert.Equal(t, "2", page[1].ID)

	page, _, err = s.List(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryCopiesOnSave(t *testing.T) {
	s := NewMemory()
	th := &models.Thought{ID: "1", Title: "original", Actions: []string{"a"}}
	require.NoError(t, s.Save(context.Background(), th))

	th.Title = "changed"
	th.Actions[0] = "b"

	page, _, _ := s.List(context.Background(), 1, 0)
	assert.Equal(t, "original", page[0].Title)
	assert.Equal(t, []string{"a"}, page[0].Actions)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	s := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.Save(context.Background(), &models.Thought{ID: fmt.Sprint(i), CreatedAt: time.Now()})
		}(i)
		go func() {
			defer wg.Done()
			_, _, _ = s.List(context.Background(), 5, 0)
		}()
	}
	wg.Wait()

	_, total, err := s.List(context.Background(), 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, total)
}
