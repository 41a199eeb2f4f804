package registry_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/scope"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_DisconnectCancelsActiveJob(t *testing.T) {
	s := scope.New(context.Background())
	r := registry.New()
	job := s.NewJob()

	var removed atomic.Int32
	r.Put("p1", job, func(j *scope.Job) {
		removed.Add(1)
		j.Cancel()
	})
	assert.Equal(t, 1, r.Len())

	r.Disconnect("p1")
	r.Disconnect("p1")

	assert.Equal(t, int32(1), removed.Load(), "callback fires once")
	assert.False(t, job.Active())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_DisconnectSkipsFinishedJob(t *testing.T) {
	s := scope.New(context.Background())
	r := registry.New()
	job := s.Go(func(ctx context.Context) {})
	<-job.Done()

	called := false
	r.Put("p1", job, func(*scope.Job) { called = true })
	r.Disconnect("p1")

	assert.False(t, called)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_PutOverwritesWithoutCancel(t *testing.T) {
	s := scope.New(context.Background())
	r := registry.New()
	first := s.NewJob()
	second := s.NewJob()

	var got *scope.Job
	r.Put("p1", first, func(j *scope.Job) { got = j })
	r.Put("p1", second, func(j *scope.Job) { got = j })

	assert.True(t, first.Active(), "replaced job keeps running")
	tracked, ok := r.Get("p1")
	assert.True(t, ok)
	assert.Same(t, second, tracked)

	r.Disconnect("p1")
	assert.Same(t, second, got)
}

func TestRegistry_Prune(t *testing.T) {
	s := scope.New(context.Background())
	r := registry.New()
	done := s.Go(func(ctx context.Context) {})
	<-done.Done()
	live := s.NewJob()

	r.Put("a", done, nil)
	r.Put("b", live, nil)

	assert.Equal(t, 1, r.Prune())
	_, ok := r.Get("b")
	assert.True(t, ok)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	s := scope.New(context.Background())
	r := registry.New()

	var wg sync.WaitGroup
	var removed atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("p%d", i%5)
			r.Put(id, s.NewJob(), func(j *scope.Job) {
				removed.Add(1)
				j.Cancel()
			})
			if i%3 == 0 {
				r.Disconnect(id)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, r.Len(), 5)
	assert.LessOrEqual(t, int(removed.Load()), 50)
}
