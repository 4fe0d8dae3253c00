// Package state persists accounts in a key/value database.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/compression"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/database"
	"github.com/ugorji/go/codec"
)

var accountPrefix = []byte("acct:")

// DefaultCacheSize is the number of accounts kept in the read cache.
const DefaultCacheSize = 4096

// Config holds account store options
type Config struct {
	// CacheSize is the number of decoded accounts kept in memory
	CacheSize int

	// Compression names the registered compressor for account data
	Compression string

	// CompressionLevel is passed to the compressor
	CompressionLevel int
}

// record is the stored envelope of an account.
type record struct {
	Lamports    uint64 `codec:"l"`
	Owner       []byte `codec:"o"`
	Executable  bool   `codec:"x"`
	Compression string `codec:"c"`
	Data        []byte `codec:"d"`
}

// Store is an account store over a database.DB with an LRU read cache.
// It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	db         database.DB
	cache      *lru.Cache[solana.PublicKey, *ledger.Account]
	compressor compression.Compressor
	level      int
	handle     codec.MsgpackHandle
}

// New creates a store over db
func New(db database.DB, cfg Config) (*Store, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Compression == "" {
		cfg.Compression = compression.None
	}

	cache, err := lru.New[solana.PublicKey, *ledger.Account](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	comp, err := compression.Get(cfg.Compression)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:         db,
		cache:      cache,
		compressor: comp,
		level:      cfg.CompressionLevel,
	}
	return s, nil
}

func accountKey(key solana.PublicKey) []byte {
	out := make([]byte, 0, len(accountPrefix)+solana.PublicKeyLength)
	out = append(out, accountPrefix...)
	return append(out, key[:]...)
}

func (s *Store) encode(acct *ledger.Account) ([]byte, error) {
	data, err := s.compressor.Compress(acct.Data, s.level)
	if err != nil {
		return nil, fmt.Errorf("compress account data: %w", err)
	}
	rec := record{
		Lamports:    acct.Lamports,
		Owner:       acct.Owner.Bytes(),
		Executable:  acct.Executable,
		Compression: s.compressor.Name(),
		Data:        data,
	}
	var out []byte
	if err := codec.NewEncoderBytes(&out, &s.handle).Encode(&rec); err != nil {
		return nil, fmt.Errorf("encode account record: %w", err)
	}
	return out, nil
}

func (s *Store) decode(raw []byte) (*ledger.Account, error) {
	var rec record
	if err := codec.NewDecoderBytes(raw, &s.handle).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode account record: %w", err)
	}
	if len(rec.Owner) != solana.PublicKeyLength {
		return nil, fmt.Errorf("decode account record: owner has %d bytes", len(rec.Owner))
	}

	comp, err := compression.Get(rec.Compression)
	if err != nil {
		return nil, err
	}
	data, err := comp.Decompress(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("decompress account data: %w", err)
	}
	return &ledger.Account{
		Lamports:   rec.Lamports,
		Owner:      solana.PublicKeyFromBytes(rec.Owner),
		Executable: rec.Executable,
		Data:       data,
	}, nil
}

// Read returns a copy of the account under key, or nil when it does not exist
func (s *Store) Read(key solana.PublicKey) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if acct, ok := s.cache.Get(key); ok {
		return acct.Clone(), nil
	}

	raw, err := s.db.Read(context.Background(), accountKey(key))
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read account %s: %w", key, err)
	}
	acct, err := s.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", key, err)
	}
	s.cache.Add(key, acct)
	return acct.Clone(), nil
}

// ApplyBatch commits the changes of one transaction atomically
func (s *Store) ApplyBatch(changes []ledger.Change) error {
	if len(changes) == 0 {
		return nil
	}

	ops := make([]database.BatchOperation, 0, len(changes))
	for _, change := range changes {
		if change.Action == ledger.ActionErase || change.Account.IsClosed() {
			ops = append(ops, database.BatchOperation{
				Type: database.BatchDelete,
				Key:  accountKey(change.Key),
			})
			continue
		}
		raw, err := s.encode(change.Account)
		if err != nil {
			return fmt.Errorf("account %s: %w", change.Key, err)
		}
		ops = append(ops, database.BatchOperation{
			Type:  database.BatchPut,
			Key:   accountKey(change.Key),
			Value: raw,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Batch(context.Background(), ops); err != nil {
		// The cache may now disagree with the database about these keys
		for _, change := range changes {
			s.cache.Remove(change.Key)
		}
		return fmt.Errorf("%w: %v", database.ErrBatchOperationFailed, err)
	}
	for _, change := range changes {
		if change.Action == ledger.ActionErase || change.Account.IsClosed() {
			s.cache.Remove(change.Key)
		} else {
			s.cache.Add(change.Key, change.Account.Clone())
		}
	}
	return nil
}

// SetAccount writes a single account outside any transaction. Used for
// genesis and airdrops.
func (s *Store) SetAccount(key solana.PublicKey, acct *ledger.Account) error {
	action := ledger.ActionModify
	if acct.IsClosed() {
		action = ledger.ActionErase
	}
	return s.ApplyBatch([]ledger.Change{{Key: key, Action: action, Account: acct}})
}

// ForEach calls fn for every stored account in key order until fn returns false
func (s *Store) ForEach(ctx context.Context, fn func(key solana.PublicKey, acct *ledger.Account) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	end := append([]byte(nil), accountPrefix...)
	end[len(end)-1]++

	it, err := s.db.Iterator(ctx, accountPrefix, end)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		k := it.Key()
		if len(k) != len(accountPrefix)+solana.PublicKeyLength {
			continue
		}
		acct, err := s.decode(it.Value())
		if err != nil {
			return err
		}
		if !fn(solana.PublicKeyFromBytes(k[len(accountPrefix):]), acct) {
			break
		}
	}
	return it.Error()
}

// Len returns the number of cached accounts
func (s *Store) Len() int {
	return s.cache.Len()
}
