package store

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The store calls them on hot paths.
type Hooks interface {
	// A single entry was deleted by the store on read.
	// reason ∈ {"corrupt", "hash_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// A bulk read path was rejected and fell back to singles.
	// reason ∈ {"decode_error", "invalid"}
	BulkRejected(namespace string, requested int, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string, isBulk bool)

	// Put refused a metainfo file larger than MaxPayload.
	PayloadRejected(size, limit int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)          {}
func (NopHooks) BulkRejected(string, int, string) {}
func (NopHooks) ProviderSetRejected(string, bool) {}
func (NopHooks) PayloadRejected(int, int)         {}
