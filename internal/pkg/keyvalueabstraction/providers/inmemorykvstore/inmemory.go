package inmemorykvstore

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	kvencoding "github.com/ciricc/btc-address-indexer/internal/pkg/keyvalueabstraction/encoding"
)

// Store keeps encoded values in a map. It mirrors the LevelDB provider's
// behavior, ListKeys order included, so it can stand in for it in tests.
type Store struct {
	mx sync.RWMutex
	s  map[string][]byte

	encoding kvencoding.Codec
}

func New() (*Store, error) {
	return &Store{
		s:        map[string][]byte{},
		encoding: kvencoding.MsgPack,
	}, nil
}

func (i *Store) Get(key string, v any) (found bool, err error) {
	i.mx.RLock()
	defer i.mx.RUnlock()

	val, ok := i.s[key]
	if !ok {
		return false, nil
	}

	if err := i.encoding.Unmarshal(val, v); err != nil {
		return true, fmt.Errorf("failed to decode value: %w", err)
	}

	return true, nil
}

func (i *Store) Set(key string, v any) error {
	value, err := i.encoding.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	i.mx.Lock()
	defer i.mx.Unlock()

	i.s[key] = value

	return nil
}

func (i *Store) Delete(key string) error {
	i.mx.Lock()
	defer i.mx.Unlock()

	delete(i.s, key)

	return nil
}

func (i *Store) ListKeys(
	prefix string,
	si func(key string, getValue func(v any) error) (stop bool, err error),
) error {
	i.mx.RLock()

	keys := make([]string, 0, len(i.s))
	for key := range i.s {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	values := make([][]byte, 0, len(keys))
	for _, key := range keys {
		values = append(values, i.s[key])
	}

	i.mx.RUnlock()

	for n, key := range keys {
		value := values[n]

		stop, err := si(key, func(v any) error {
			return i.encoding.Unmarshal(value, v)
		})
		if err != nil {
			return err
		}

		if stop {
			break
		}
	}

	return nil
}
