package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/zucenko/mathkombat/model"
)

const HistorySize = 5

// History keeps the last completed matches, newest first. With an empty
// path it lives in memory only.
type History struct {
	mu      sync.Mutex
	path    string
	size    int
	records []model.GameRecord
}

// OpenHistory loads path if it exists. A missing file is an empty history.
func OpenHistory(path string, size int) (*History, error) {
	if size <= 0 {
		size = HistorySize
	}
	h := &History{path: path, size: size, records: make([]model.GameRecord, 0)}
	if path == "" {
		return h, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if err := json.Unmarshal(data, &h.records); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	if len(h.records) > h.size {
		h.records = h.records[:h.size]
	}
	return h, nil
}

func (h *History) List() []model.GameRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.copy()
}

// Add puts rec in front, drops what falls off the end and writes the file.
// The in memory list is updated even when the write fails.
func (h *History) Add(rec model.GameRecord) ([]model.GameRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	records := make([]model.GameRecord, 0, h.size)
	records = append(records, rec)
	records = append(records, h.records...)
	if len(records) > h.size {
		records = records[:h.size]
	}
	h.records = records
	return h.copy(), h.save()
}

func (h *History) copy() []model.GameRecord {
	out := make([]model.GameRecord, len(h.records))
	copy(out, h.records)
	return out
}

func (h *History) save() error {
	if h.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(h.records, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(h.path), ".history-*")
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write history: %w", err)
	}
	return os.Rename(tmp.Name(), h.path)
}
