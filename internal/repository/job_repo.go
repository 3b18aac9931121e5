package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docsmith/internal/domain"
	"gorm.io/gorm"
)

// ErrTerminalRecord is returned when a write targets a job whose status
// record already reached a terminal state. Terminal records are immutable.
var ErrTerminalRecord = errors.New("status record is terminal")

// JobRepository is the durable status store: one row per job ID, overwritten
// at each stage boundary by the single orchestrator execution that owns it.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job row in its initial state.
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Get retrieves a job by its ID. Returns domain.ErrNotFound when absent.
func (r *JobRepository) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	var job domain.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Put overwrites the job's status record, last writer wins. Writes against a
// record that already reached a terminal state are rejected with
// ErrTerminalRecord so terminal status is monotonic per job ID.
func (r *JobRepository) Put(ctx context.Context, job *domain.Job) error {
	job.UpdatedAt = time.Now().UTC()

	// The guard is expressed in the WHERE clause rather than read-then-write:
	// polls may race the writer even though job writers never race each other.
	res := r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ? AND status NOT IN ?", job.ID,
			[]domain.JobStatus{domain.JobStatusCompleted, domain.JobStatusFailed}).
		Updates(map[string]interface{}{
			"owner_id":      job.OwnerID,
			"status":        job.Status,
			"message":       job.Message,
			"provider_used": job.ProviderUsed,
			"degraded":      job.Degraded,
			"result_refs":   job.ResultRefs,
			"cost_usd":      job.CostUSD,
			"started_at":    job.StartedAt,
			"completed_at":  job.CompletedAt,
			"updated_at":    job.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.Get(ctx, job.ID)
		if err != nil {
			return err
		}
		if existing.Status.Terminal() {
			return fmt.Errorf("job %s: %w", job.ID, ErrTerminalRecord)
		}
		return fmt.Errorf("job %s: no row updated", job.ID)
	}
	return nil
}

// ListByOwner returns the owner's jobs, newest first.
func (r *JobRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Job, error) {
	var jobs []domain.Job
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error
	return jobs, err
}
