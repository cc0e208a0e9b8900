package database

import (
	"context"
	"fmt"
	"sync"

	"crypto-reporter/internal/models"

	"gorm.io/gorm"
)

// Recorder keeps the audit log of scheduler cycles.
type Recorder interface {
	RecordCycle(ctx context.Context, run *models.CycleRun) error
	// RecentCycles returns up to limit runs, newest first.
	RecentCycles(ctx context.Context, limit int) ([]models.CycleRun, error)
}

// GormRecorder stores cycle runs in the cycle_runs table.
type GormRecorder struct {
	db *gorm.DB
}

func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

func (r *GormRecorder) RecordCycle(ctx context.Context, run *models.CycleRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("insert cycle run: %w", err)
	}
	return nil
}

func (r *GormRecorder) RecentCycles(ctx context.Context, limit int) ([]models.CycleRun, error) {
	var runs []models.CycleRun
	if err := r.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("query cycle runs: %w", err)
	}
	return runs, nil
}

// MemoryRecorder keeps the last capacity runs in process memory. It is used
// when no database is configured.
type MemoryRecorder struct {
	mu       sync.Mutex
	capacity int
	runs     []models.CycleRun
	nextID   uint
}

func NewMemoryRecorder(capacity int) *MemoryRecorder {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryRecorder{capacity: capacity}
}

func (r *MemoryRecorder) RecordCycle(_ context.Context, run *models.CycleRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	run.ID = r.nextID
	r.runs = append(r.runs, *run)
	if len(r.runs) > r.capacity {
		r.runs = r.runs[len(r.runs)-r.capacity:]
	}
	return nil
}

func (r *MemoryRecorder) RecentCycles(_ context.Context, limit int) ([]models.CycleRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.runs) {
		limit = len(r.runs)
	}
	out := make([]models.CycleRun, 0, limit)
	for i := len(r.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.runs[i])
	}
	return out, nil
}
