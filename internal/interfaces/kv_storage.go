package interfaces

// KVStorage is a minimal durable key-value facet for small operational state
// (last reindex times, capability flags).
type KVStorage interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	Has(key string) (bool, error)
}
