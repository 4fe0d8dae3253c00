package tx

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
)

var (
	// ErrAccountNotDeclared is returned when an instruction touches an
	// account outside the transaction's lock set
	ErrAccountNotDeclared = errors.New("account not declared by the transaction")

	// ErrReadonlyAccount is returned when an instruction writes an account
	// declared read-only
	ErrReadonlyAccount = errors.New("account declared read-only")
)

// TrackedEntry represents an account being tracked for changes. Original is
// nil when the account did not exist before the transaction, Current is nil
// once it has been erased.
type TrackedEntry struct {
	Action   ledger.Action
	Original *ledger.Account
	Current  *ledger.Account
}

// ApplyStateTable wraps a LedgerView and tracks all modifications made by a
// transaction so they can be committed as one batch, or discarded.
type ApplyStateTable struct {
	base  LedgerView
	items map[solana.PublicKey]*TrackedEntry

	// locks maps declared accounts to whether they are writable. A nil map
	// disables lock enforcement.
	locks map[solana.PublicKey]bool
}

// NewApplyStateTable creates a new ApplyStateTable wrapping the given base view
func NewApplyStateTable(base LedgerView, locks map[solana.PublicKey]bool) *ApplyStateTable {
	return &ApplyStateTable{
		base:  base,
		items: make(map[solana.PublicKey]*TrackedEntry),
		locks: locks,
	}
}

func (t *ApplyStateTable) checkLock(key solana.PublicKey, write bool) error {
	if t.locks == nil {
		return nil
	}
	writable, declared := t.locks[key]
	if !declared {
		return fmt.Errorf("%w: %s", ErrAccountNotDeclared, key)
	}
	if write && !writable {
		return fmt.Errorf("%w: %s", ErrReadonlyAccount, key)
	}
	return nil
}

// track returns the entry for key, reading it from the base on first access.
func (t *ApplyStateTable) track(key solana.PublicKey) (*TrackedEntry, error) {
	if entry, exists := t.items[key]; exists {
		return entry, nil
	}
	acct, err := t.base.Read(key)
	if err != nil {
		return nil, err
	}
	if acct.IsClosed() {
		acct = nil
	}
	entry := &TrackedEntry{
		Action:   ledger.ActionCache,
		Original: acct,
		Current:  acct,
	}
	t.items[key] = entry
	return entry, nil
}

// Read returns a copy of the account, or nil when it does not exist
func (t *ApplyStateTable) Read(key solana.PublicKey) (*ledger.Account, error) {
	if err := t.checkLock(key, false); err != nil {
		return nil, err
	}
	entry, err := t.track(key)
	if err != nil {
		return nil, err
	}
	return entry.Current.Clone(), nil
}

// Write stores acct under key. A nil account or one with zero lamports
// erases the entry.
func (t *ApplyStateTable) Write(key solana.PublicKey, acct *ledger.Account) error {
	if err := t.checkLock(key, true); err != nil {
		return err
	}
	entry, err := t.track(key)
	if err != nil {
		return err
	}

	if acct.IsClosed() {
		entry.Current = nil
	} else {
		entry.Current = acct.Clone()
	}

	switch {
	case entry.Original == nil && entry.Current == nil:
		entry.Action = ledger.ActionCache
	case entry.Original == nil:
		entry.Action = ledger.ActionInsert
	case entry.Current == nil:
		entry.Action = ledger.ActionErase
	default:
		entry.Action = ledger.ActionModify
	}
	return nil
}

// Snapshot captures the tracked state so it can be restored later
func (t *ApplyStateTable) Snapshot() map[solana.PublicKey]TrackedEntry {
	snap := make(map[solana.PublicKey]TrackedEntry, len(t.items))
	for key, entry := range t.items {
		snap[key] = *entry
	}
	return snap
}

// Restore discards every change made since snap was taken
func (t *ApplyStateTable) Restore(snap map[solana.PublicKey]TrackedEntry) {
	t.items = make(map[solana.PublicKey]*TrackedEntry, len(snap))
	for key, entry := range snap {
		e := entry
		t.items[key] = &e
	}
}

func (t *ApplyStateTable) sortedKeys() []solana.PublicKey {
	keys := make([]solana.PublicKey, 0, len(t.items))
	for key := range t.items {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

// Changes returns the writes to commit, ordered by key. Modifications that
// restored the original account are dropped.
func (t *ApplyStateTable) Changes() []ledger.Change {
	var changes []ledger.Change
	for _, key := range t.sortedKeys() {
		entry := t.items[key]
		switch entry.Action {
		case ledger.ActionCache:
			continue
		case ledger.ActionModify:
			if entry.Original.Equal(entry.Current) {
				continue
			}
		}
		changes = append(changes, ledger.Change{
			Key:     key,
			Action:  entry.Action,
			Account: entry.Current.Clone(),
		})
	}
	return changes
}

// AffectedNodes describes every committed change
func (t *ApplyStateTable) AffectedNodes() []AffectedNode {
	var nodes []AffectedNode
	for _, change := range t.Changes() {
		entry := t.items[change.Key]
		node := AffectedNode{
			NodeType: nodeType(change.Action),
			Account:  change.Key,
		}
		if entry.Original != nil {
			node.Owner = entry.Original.Owner
			node.PreviousLamports = entry.Original.Lamports
			node.PreviousDataLen = len(entry.Original.Data)
		}
		if entry.Current != nil {
			node.Owner = entry.Current.Owner
			node.FinalLamports = entry.Current.Lamports
			node.FinalDataLen = len(entry.Current.Data)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// CheckRent returns the first account left below the rent-exempt minimum by
// this transaction. Accounts that were already below it and were neither
// debited nor grown are tolerated.
func (t *ApplyStateTable) CheckRent(rent Rent) (solana.PublicKey, bool) {
	for _, key := range t.sortedKeys() {
		entry := t.items[key]
		cur := entry.Current
		if entry.Action == ledger.ActionCache || cur == nil {
			continue
		}
		if rent.IsExempt(cur.Lamports, len(cur.Data)) {
			continue
		}
		orig := entry.Original
		if orig == nil || cur.Lamports < orig.Lamports || len(cur.Data) > len(orig.Data) {
			return key, false
		}
	}
	return solana.PublicKey{}, true
}

// LamportTotals sums the lamports of every tracked account before and after
// the transaction.
func (t *ApplyStateTable) LamportTotals() (before, after uint64) {
	for _, entry := range t.items {
		if entry.Original != nil {
			before += entry.Original.Lamports
		}
		if entry.Current != nil {
			after += entry.Current.Lamports
		}
	}
	return before, after
}
