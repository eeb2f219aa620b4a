package domain

import "context"

// FileStore persists uploaded file bytes under opaque keys.
type FileStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}

// Email is an outgoing HTML email.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers outgoing email.
type Notifier interface {
	Send(ctx context.Context, email Email) error
}
