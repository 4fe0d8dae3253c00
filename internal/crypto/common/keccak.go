package crypto

import "golang.org/x/crypto/sha3"

// Keccak256 returns the legacy keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var result [32]byte
	h.Sum(result[:0])
	return result
}
