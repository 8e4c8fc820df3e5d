package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/mathkombat/model"
)

func record(i int) model.GameRecord {
	return model.GameRecord{Id: fmt.Sprintf("r%d", i), Result: model.MatchResult{Points: i}}
}

func TestHistoryKeepsNewestFirst(t *testing.T) {
	h, err := OpenHistory("", HistorySize)
	require.NoError(t, err)
	for i := 1; i <= 7; i++ {
		_, err := h.Add(record(i))
		require.NoError(t, err)
	}
	list := h.List()
	require.Len(t, list, HistorySize)
	for i, rec := range list {
		assert.Equal(t, fmt.Sprintf("r%d", 7-i), rec.Id)
	}
}

func TestHistoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	h, err := OpenHistory(path, 3)
	require.NoError(t, err)
	assert.Empty(t, h.List())
	for i := 1; i <= 4; i++ {
		_, err := h.Add(record(i))
		require.NoError(t, err)
	}

	reopened, err := OpenHistory(path, 3)
	require.NoError(t, err)
	assert.Equal(t, h.List(), reopened.List())
	assert.Equal(t, "r4", reopened.List()[0].Id)
}

func TestHistoryCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := OpenHistory(path, 5)
	assert.Error(t, err)
}

func TestHistoryWriteFailureKeepsMemory(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "missing", "history.json"), 5)
	require.NoError(t, err)
	list, err := h.Add(record(1))
	assert.Error(t, err)
	assert.Len(t, list, 1)
}

type fakeStore struct {
	mu    sync.Mutex
	saved []model.Profile
	err   error
}

func (f *fakeStore) Save(ctx context.Context, p model.Profile, r model.MatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, p)
	return f.err
}

func TestReport(t *testing.T) {
	h, _ := OpenHistory("", 0)
	store := &fakeStore{}
	r := NewReporter(h, store)
	r.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	r.NewId = func() string { return "match-1" }

	p := model.Profile{Name: "Morpheus", Age: 40}
	res := model.MatchResult{Points: 900, Correct: 1}
	records := r.Report(context.Background(), p, res)
	r.Wait()

	require.Len(t, records, 1)
	assert.Equal(t, model.GameRecord{Id: "match-1", Date: "2024-05-01T12:00:00Z", Profile: p, Result: res}, records[0])
	assert.Equal(t, []model.Profile{p}, store.saved)
}

func TestReportSwallowsPersistFailure(t *testing.T) {
	h, _ := OpenHistory("", 0)
	r := NewReporter(h, &fakeStore{err: errors.New("db down")})
	records := r.Report(context.Background(), model.Profile{Name: "Tank"}, model.MatchResult{})
	r.Wait()
	assert.Len(t, records, 1)
	assert.Len(t, h.List(), 1)
}

// heldStore blocks every save until it is released or its context ends.
type heldStore struct {
	started chan context.Context
	release chan struct{}
}

func newHeldStore() *heldStore {
	return &heldStore{started: make(chan context.Context, 1), release: make(chan struct{})}
}

func (h *heldStore) Save(ctx context.Context, p model.Profile, r model.MatchResult) error {
	h.started <- ctx
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.release:
		return nil
	}
}

func (h *heldStore) saveCtx(t *testing.T) context.Context {
	select {
	case ctx := <-h.started:
		return ctx
	case <-time.After(2 * time.Second):
		t.Fatal("save never started")
		return nil
	}
}

func TestReportSaveFollowsMatch(t *testing.T) {
	h, _ := OpenHistory("", 0)
	store := newHeldStore()
	r := NewReporter(h, store)
	r.Shutdown = context.Background()

	match, cancel := context.WithCancel(context.Background())
	r.Report(match, model.Profile{Name: "Switch"}, model.MatchResult{})
	saveCtx := store.saveCtx(t)
	assert.NoError(t, saveCtx.Err())

	cancel()
	assert.Eventually(t, func() bool { return saveCtx.Err() != nil }, time.Second, 5*time.Millisecond)
	r.Wait()
}

func TestReportSaveOutlivesShutdown(t *testing.T) {
	h, _ := OpenHistory("", 0)
	store := newHeldStore()
	r := NewReporter(h, store)
	shutdown, stop := context.WithCancel(context.Background())
	r.Shutdown = shutdown

	match, cancel := context.WithCancel(shutdown)
	defer cancel()
	r.Report(match, model.Profile{Name: "Apoc"}, model.MatchResult{})
	saveCtx := store.saveCtx(t)

	stop()
	require.Error(t, match.Err())
	assert.Never(t, func() bool { return saveCtx.Err() != nil }, 100*time.Millisecond, 5*time.Millisecond)

	close(store.release)
	r.Wait()
	assert.Len(t, h.List(), 1)
}
