package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields. These are propagated through the call chain
// via context so that every log line of a job or request carries them.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the generation job ID
	FieldJobID = "job_id"

	// FieldOwnerID is the job owner ID
	FieldOwnerID = "owner_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldStage is the pipeline stage name
	FieldStage = "stage"

	// FieldProvider is the generation provider ID
	FieldProvider = "provider"
)

// Standard metric fields, attached at the logging call site.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldAttempt is the fallback attempt index (1-based)
	FieldAttempt = "attempt"
)
