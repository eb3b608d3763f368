package storage

import (
	"errors"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/msmt-labs/mssmt/lib"
	"github.com/msmt-labs/mssmt/mssmt"
)

// errCorruptKey is wrapped by lib.ErrCorruptNode when an iterated badger key
// doesn't decode to a single mssmt.KeySize-length segment
var errCorruptKey = errors.New("stored key is not a valid length-prefixed leaf key")

// leafRecordPrefix namespaces every persisted leaf entry within the badger keyspace,
// leaving room for future prefixes without a migration
var leafRecordPrefix = []byte{0x01}

// encodeLeafRecord() packs a (value, sum) pair into a protobuf structpb.Struct and
// marshals it through the shared binary codec. value is hex-encoded and sum is
// carried as a decimal string rather than structpb's native number (a float64) so
// both round-trip through the wire format without losing precision
func encodeLeafRecord(value []byte, sum uint64) ([]byte, lib.ErrorI) {
	rec, err := structpb.NewStruct(map[string]any{
		"value": lib.BytesToString(value),
		"sum":   strconv.FormatUint(sum, 10),
	})
	if err != nil {
		return nil, lib.ErrMarshal(err)
	}
	return lib.Marshal(rec)
}

// decodeLeafRecord() reverses encodeLeafRecord()
func decodeLeafRecord(bz []byte) ([]byte, uint64, lib.ErrorI) {
	rec := &structpb.Struct{}
	if uErr := lib.Unmarshal(bz, rec); uErr != nil {
		return nil, 0, lib.ErrCorruptNode(uErr)
	}
	value, hErr := lib.StringToBytes(rec.Fields["value"].GetStringValue())
	if hErr != nil {
		return nil, 0, lib.ErrCorruptNode(hErr)
	}
	sum, pErr := strconv.ParseUint(rec.Fields["sum"].GetStringValue(), 10, 64)
	if pErr != nil {
		return nil, 0, lib.ErrCorruptNode(pErr)
	}
	return value, sum, nil
}

// Store is an optional, badger-backed durability layer for mssmt.Tree. The tree
// itself remains a pure in-memory value per its own package; Store exists only so
// a CLI or RPC process can snapshot entries between runs without re-deriving them
// from some other source of truth
type Store struct {
	db   *badger.DB
	log  lib.LoggerI
	conf lib.StoreConfig
}

// NewStore() opens (or creates) the badger database described by conf
func NewStore(conf lib.StoreConfig, log lib.LoggerI) (*Store, lib.ErrorI) {
	opts := badger.DefaultOptions(conf.DataDirPath)
	if conf.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, lib.ErrOpenDB(err)
	}
	return &Store{db: db, log: log, conf: conf}, nil
}

// Close() closes the underlying badger database
func (s *Store) Close() lib.ErrorI {
	if err := s.db.Close(); err != nil {
		return lib.ErrCloseDB(err)
	}
	return nil
}

// Put() persists one (key, value, sum) entry, namespaced by leafRecordPrefix
func (s *Store) Put(key mssmt.Key, value []byte, sum uint64) lib.ErrorI {
	bz, eErr := encodeLeafRecord(value, sum)
	if eErr != nil {
		return eErr
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(lib.JoinLenPrefix(leafRecordPrefix, key[:]), bz)
	})
	if err != nil {
		return lib.ErrStoreSet(err)
	}
	return nil
}

// Entry is one (key, value, sum) triple accepted by PutBatch
type Entry struct {
	Key   mssmt.Key
	Value []byte
	Sum   uint64
}

// PutBatch() persists many entries using badger's write-batch API, flushing and
// starting a fresh batch whenever the accumulated record size would exceed
// conf.MaxBatchBytes() - this bounds how much unflushed data badger holds in memory
// during a large import rather than committing every entry as its own transaction
// or the whole import as a single unbounded one
func (s *Store) PutBatch(entries []Entry) lib.ErrorI {
	maxBytes := s.conf.MaxBatchBytes()
	batch := s.db.NewWriteBatch()
	var pending uint64
	for _, e := range entries {
		bz, eErr := encodeLeafRecord(e.Value, e.Sum)
		if eErr != nil {
			batch.Cancel()
			return eErr
		}
		if pending > 0 && pending+uint64(len(bz)) > maxBytes {
			if err := batch.Flush(); err != nil {
				return lib.ErrCommitDB(err)
			}
			batch = s.db.NewWriteBatch()
			pending = 0
		}
		if err := batch.Set(lib.JoinLenPrefix(leafRecordPrefix, e.Key[:]), bz); err != nil {
			batch.Cancel()
			return lib.ErrStoreSet(err)
		}
		pending += uint64(len(bz))
	}
	if err := batch.Flush(); err != nil {
		return lib.ErrCommitDB(err)
	}
	return nil
}

// Delete() removes the persisted entry at key, if any
func (s *Store) Delete(key mssmt.Key) lib.ErrorI {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(lib.JoinLenPrefix(leafRecordPrefix, key[:]))
	})
	if err != nil {
		return lib.ErrStoreDelete(err)
	}
	return nil
}

// LoadTree() replays every persisted entry into a fresh mssmt.Tree. This is how a
// CLI/RPC process recovers tree state across restarts: the tree is rebuilt in
// memory from the flat snapshot rather than stored in its recursive node shape
func (s *Store) LoadTree() (*mssmt.Tree, lib.ErrorI) {
	tree := mssmt.New()
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := leafRecordPrefix
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			segments := lib.DecodeLengthPrefixed(item.KeyCopy(nil))
			if len(segments) != 2 || len(segments[1]) != mssmt.KeySize {
				return lib.ErrCorruptNode(errCorruptKey)
			}
			var key mssmt.Key
			copy(key[:], segments[1])
			val, gErr := item.ValueCopy(nil)
			if gErr != nil {
				return lib.ErrStoreGet(gErr)
			}
			value, sum, dErr := decodeLeafRecord(val)
			if dErr != nil {
				return dErr
			}
			newTree, insErr := mssmt.Insert(tree, key, value, sum)
			if insErr != nil {
				return insErr
			}
			tree = newTree
		}
		return nil
	})
	if err != nil {
		if eI, ok := err.(lib.ErrorI); ok {
			return nil, eI
		}
		return nil, lib.ErrStoreIterate(err)
	}
	return tree, nil
}
