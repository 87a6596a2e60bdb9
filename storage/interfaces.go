package storage

import "reddit-insights/models"

// PostWriter is the interface any storage backend must satisfy.
type PostWriter interface {
	Write(posts []*models.Post) error
	Close() error
}

// RawPostWriter is the interface for persisting unprocessed ingested data.
type RawPostWriter interface {
	WriteRaw(posts []*models.RawPost) error
	Close() error
}

var (
	_ PostWriter    = (*PostgresWriter)(nil)
	_ RawPostWriter = (*CSVWriter)(nil)
)
