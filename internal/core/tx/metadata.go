package tx

import (
	"encoding/json"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
)

// AffectedNode records how one account changed.
type AffectedNode struct {
	NodeType         string           `json:"node_type"`
	Account          solana.PublicKey `json:"account"`
	Owner            solana.PublicKey `json:"owner"`
	PreviousLamports uint64           `json:"previous_lamports"`
	FinalLamports    uint64           `json:"final_lamports"`
	PreviousDataLen  int              `json:"previous_data_len"`
	FinalDataLen     int              `json:"final_data_len"`
}

func nodeType(a ledger.Action) string {
	switch a {
	case ledger.ActionInsert:
		return "CreatedNode"
	case ledger.ActionErase:
		return "DeletedNode"
	default:
		return "ModifiedNode"
	}
}

// Metadata describes the effects of an applied transaction
type Metadata struct {
	// AffectedNodes lists all accounts that were created, modified, or deleted
	AffectedNodes []AffectedNode

	// TransactionResult is the result code
	TransactionResult Result

	// Fee is the fee charged in lamports
	Fee uint64

	// Logs holds the program log lines emitted while applying
	Logs []string
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	nodes := m.AffectedNodes
	if nodes == nil {
		nodes = []AffectedNode{}
	}
	return json.Marshal(struct {
		AffectedNodes     []AffectedNode `json:"affected_nodes"`
		TransactionResult string         `json:"transaction_result"`
		Fee               uint64         `json:"fee"`
		Logs              []string       `json:"logs,omitempty"`
	}{nodes, m.TransactionResult.String(), m.Fee, m.Logs})
}
