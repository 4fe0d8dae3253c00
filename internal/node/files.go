package node

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// LoadTransactions reads transactions from JSON files. A file holds either
// one transaction object or an array of them; order is preserved.
func LoadTransactions(paths ...string) ([]*tx.Transaction, error) {
	var txns []*tx.Transaction
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		parsed, err := ParseTransactions(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		txns = append(txns, parsed...)
	}
	return txns, nil
}

// ParseTransactions decodes a transaction object or array
func ParseTransactions(data []byte) ([]*tx.Transaction, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty transaction file")
	}
	if data[0] == '[' {
		var txns []*tx.Transaction
		if err := json.Unmarshal(data, &txns); err != nil {
			return nil, err
		}
		return txns, nil
	}
	var t tx.Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return []*tx.Transaction{&t}, nil
}
