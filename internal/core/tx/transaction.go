package tx

import (
	"bytes"
	"encoding/json"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// MaxInstructions bounds the number of instructions in one transaction.
const MaxInstructions = 64

// SignatureEntry is an ed25519 signature over the transaction message.
type SignatureEntry struct {
	PublicKey solana.PublicKey `json:"pubkey"`
	Signature solana.Signature `json:"signature"`
}

// Transaction is an ordered list of instructions applied atomically.
type Transaction struct {
	FeePayer     solana.PublicKey
	Instructions []Instruction
	Signatures   []SignatureEntry
}

// NewTransaction builds an unsigned transaction.
func NewTransaction(feePayer solana.PublicKey, instructions ...Instruction) *Transaction {
	return &Transaction{
		FeePayer:     feePayer,
		Instructions: instructions,
	}
}

// Discriminator returns the 8-byte Anchor sighash of an instruction name.
func Discriminator(name string) []byte {
	return bin.Sighash(bin.SIGHASH_GLOBAL_NAMESPACE, name)
}

// Message returns the bytes covered by signatures: the fee payer followed,
// per instruction, by the program id, the discriminator and the borsh
// encoded instruction.
func (t *Transaction) Message() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteBytes(t.FeePayer.Bytes(), false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint32(uint32(len(t.Instructions)), bin.LE); err != nil {
		return nil, err
	}
	for i, ix := range t.Instructions {
		if err := enc.WriteBytes(ix.ProgramID().Bytes(), false); err != nil {
			return nil, err
		}
		if err := enc.WriteBytes(Discriminator(ix.Name()), false); err != nil {
			return nil, err
		}
		if err := enc.Encode(ix); err != nil {
			return nil, fmt.Errorf("encode instruction %d (%s): %w", i, ix.Name(), err)
		}
	}
	return buf.Bytes(), nil
}

// Sign signs the message with every key, replacing earlier signatures by
// the same key.
func (t *Transaction) Sign(keys ...solana.PrivateKey) error {
	msg, err := t.Message()
	if err != nil {
		return err
	}
	for _, key := range keys {
		sig, err := key.Sign(msg)
		if err != nil {
			return fmt.Errorf("sign with %s: %w", key.PublicKey(), err)
		}
		t.setSignature(key.PublicKey(), sig)
	}
	return nil
}

func (t *Transaction) setSignature(pub solana.PublicKey, sig solana.Signature) {
	for i := range t.Signatures {
		if t.Signatures[i].PublicKey.Equals(pub) {
			t.Signatures[i].Signature = sig
			return
		}
	}
	t.Signatures = append(t.Signatures, SignatureEntry{PublicKey: pub, Signature: sig})
}

// ID returns the fee payer's signature, which identifies the transaction.
func (t *Transaction) ID() solana.Signature {
	for _, s := range t.Signatures {
		if s.PublicKey.Equals(t.FeePayer) {
			return s.Signature
		}
	}
	return solana.Signature{}
}

// Signers returns the set of keys that signed.
func (t *Transaction) Signers() map[solana.PublicKey]bool {
	signers := make(map[solana.PublicKey]bool, len(t.Signatures))
	for _, s := range t.Signatures {
		signers[s.PublicKey] = true
	}
	return signers
}

// AccountLocks returns every declared account mapped to whether it is
// writable. The fee payer is always writable and signers are always
// readable.
func (t *Transaction) AccountLocks() map[solana.PublicKey]bool {
	locks := map[solana.PublicKey]bool{t.FeePayer: true}
	for _, s := range t.Signatures {
		if _, ok := locks[s.PublicKey]; !ok {
			locks[s.PublicKey] = false
		}
	}
	for _, ix := range t.Instructions {
		if _, ok := locks[ix.ProgramID()]; !ok {
			locks[ix.ProgramID()] = false
		}
		for _, meta := range ix.Accounts() {
			locks[meta.PublicKey] = locks[meta.PublicKey] || meta.IsWritable
		}
	}
	return locks
}

type transactionJSON struct {
	FeePayer     solana.PublicKey  `json:"fee_payer"`
	Instructions []json.RawMessage `json:"instructions"`
	Signatures   []SignatureEntry  `json:"signatures,omitempty"`
}

func (t *Transaction) MarshalJSON() ([]byte, error) {
	out := transactionJSON{
		FeePayer:   t.FeePayer,
		Signatures: t.Signatures,
	}
	for _, ix := range t.Instructions {
		raw, err := InstructionToJSON(ix)
		if err != nil {
			return nil, err
		}
		out.Instructions = append(out.Instructions, raw)
	}
	return json.Marshal(out)
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var in transactionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	t.FeePayer = in.FeePayer
	t.Signatures = in.Signatures
	t.Instructions = make([]Instruction, 0, len(in.Instructions))
	for i, raw := range in.Instructions {
		ix, err := InstructionFromJSON(raw)
		if err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		t.Instructions = append(t.Instructions, ix)
	}
	return nil
}
