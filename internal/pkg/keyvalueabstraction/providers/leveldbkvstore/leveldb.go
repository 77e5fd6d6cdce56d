package leveldbkvstore

import (
	"errors"
	"fmt"

	kvencoding "github.com/ciricc/btc-address-indexer/internal/pkg/keyvalueabstraction/encoding"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Store is a LevelDB-backed key-value store with msgpack-encoded values.
type Store struct {
	db       *leveldb.DB
	encoding kvencoding.Codec
}

func New(db *leveldb.DB) (*Store, error) {
	return &Store{
		db:       db,
		encoding: kvencoding.MsgPack,
	}, nil
}

func (l *Store) Get(key string, v any) (found bool, err error) {
	val, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("failed to get the key: %w", err)
	}

	if err := l.encoding.Unmarshal(val, v); err != nil {
		return true, fmt.Errorf("failed to decode value: %w", err)
	}

	return true, nil
}

func (l *Store) Set(key string, v any) error {
	value, err := l.encoding.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	if err := l.db.Put([]byte(key), value, nil); err != nil {
		return fmt.Errorf("failed to put the key: %w", err)
	}

	return nil
}

func (l *Store) Delete(key string) error {
	if err := l.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("failed to delete the key: %w", err)
	}

	return nil
}

func (l *Store) ListKeys(
	prefix string,
	si func(key string, getValue func(v any) error) (stop bool, err error),
) error {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	for iter.Next() {
		key := string(iter.Key())
		value := append([]byte(nil), iter.Value()...)

		stop, err := si(key, func(v any) error {
			return l.encoding.Unmarshal(value, v)
		})
		if err != nil {
			return err
		}

		if stop {
			break
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("failed to iterate keys: %w", err)
	}

	return nil
}
