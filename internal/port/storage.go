package port

import (
	"context"
	"io"
)

// UploadInput carries everything needed to archive one note payload.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// UploadOutput describes where a successful upload landed.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts the note archive. GetPresignedURL issues a
// time-limited read link without proxying the bytes through the API.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
	GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error)
}
