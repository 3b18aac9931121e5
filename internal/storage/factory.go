package storage

// NewStorage creates an ObjectStorage instance for the configured backend.
// All supported backends (MinIO, R2, AWS) speak the S3 API.
func NewStorage(cfg *S3Config) (ObjectStorage, error) {
	return NewS3Storage(cfg)
}
