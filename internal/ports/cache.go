package ports

import "context"

// Cache is the key-value capability behind the settings store. Operational
// knobs such as the work-in-progress limit live in the database so they can
// be changed without a restart. Get reports found=false for a missing key.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
