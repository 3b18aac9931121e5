package domain

import "time"

// JobStatus represents the status of a generation job.
// Values include JobStatusPending, JobStatusProcessing, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final. A terminal record is never
// overwritten for a given job ID.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// FallbackPlaceholderProvider is the providerUsed value recorded when every
// real provider was exhausted and the job completed with placeholder content.
// Callers distinguish degraded results by this value together with the
// Degraded flag.
const FallbackPlaceholderProvider = "fallback-placeholder"

// Artifact names used as ResultRefs keys.
const (
	ArtifactPrimary   = "document"
	ArtifactSecondary = "cover_letter"
)

// ResultRefs maps artifact names to object storage keys.
type ResultRefs map[string]string

// Job represents one document-generation job and its progress metadata.
// Exactly one orchestrator execution owns write access to a job at a time.
type Job struct {
	ID              string     `gorm:"type:text;primaryKey" json:"id"`
	OwnerID         string     `gorm:"type:text;not null;index" json:"owner_id"`
	SourceRef       string     `gorm:"type:text;not null" json:"source_ref"`
	EnrichmentRef   string     `json:"enrichment_ref,omitempty"`
	OutputFormat    string     `gorm:"default:pdf" json:"output_format"`
	SecondaryOutput bool       `json:"secondary_output"`
	Status          JobStatus  `gorm:"default:pending;index" json:"status"`
	Message         string     `json:"message,omitempty"`
	ProviderUsed    string     `json:"provider_used,omitempty"`
	Degraded        bool       `json:"degraded"`
	ResultRefs      ResultRefs `gorm:"serializer:json" json:"result_refs,omitempty"`
	CostUSD         float64    `json:"cost_usd"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Job.
func (Job) TableName() string {
	return "generation_jobs"
}

// StatusRecord is the serializable snapshot of a job's mutable fields,
// returned to status-poll callers.
type StatusRecord struct {
	JobID        string     `json:"job_id"`
	OwnerID      string     `json:"owner_id"`
	Status       JobStatus  `json:"status"`
	Message      string     `json:"message,omitempty"`
	ProviderUsed string     `json:"provider_used,omitempty"`
	Degraded     bool       `json:"degraded"`
	ResultRefs   ResultRefs `json:"result_refs,omitempty"`
	CostUSD      float64    `json:"cost_usd,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Record returns the poll snapshot for the job.
func (j *Job) Record() StatusRecord {
	refs := make(ResultRefs, len(j.ResultRefs))
	for k, v := range j.ResultRefs {
		refs[k] = v
	}
	if len(refs) == 0 {
		refs = nil
	}
	return StatusRecord{
		JobID:        j.ID,
		OwnerID:      j.OwnerID,
		Status:       j.Status,
		Message:      j.Message,
		ProviderUsed: j.ProviderUsed,
		Degraded:     j.Degraded,
		ResultRefs:   refs,
		CostUSD:      j.CostUSD,
		StartedAt:    j.StartedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}
