package keyvaluestore

type Store interface {
	// Get retrieves the value for the given key.
	Get(key string, v any) (found bool, err error)

	// Set sets the key to the given value.
	Set(key string, v any) error

	// Delete deletes the key from the store.
	Delete(key string) error

	// ListKeys iterates over all keys starting with the given prefix, in
	// lexicographic key order, and calls the given function for each key.
	ListKeys(prefix string, si func(key string, getValue func(v any) error) (stop bool, err error)) error
}
