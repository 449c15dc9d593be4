package storage

// Slot is a local, process-persistent key-value text store. The journal keeps
// its whole entry collection in a single key; Set always replaces the value.
type Slot interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Get returns the value stored under key. ok is false when the key has
	// never been written.
	Get(key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Utils
	GetConfigPath() string
}
