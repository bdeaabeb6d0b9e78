package domain

import "context"

// Setting represents a dynamic configuration value stored in the database.
type Setting struct {
	Key   string
	Value string
}

// ISettingsRepository defines the contract for persisting dynamic settings.
type ISettingsRepository interface {
	// Basic CRUD
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	// SetMany writes every value or none of them.
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, key string) error
	ListByPrefix(ctx context.Context, prefix string) ([]Setting, error)

	// InitSchema creates the necessary tables
	InitSchema(ctx context.Context) error
}

// Key namespaces used in the system
const (
	KeyFeaturePrefix = "feature."
	KeyServicePrefix = "service."
)
