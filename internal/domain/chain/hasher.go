package chain

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashHexLength es el largo del inalterable_hash: SHA-256 en hexadecimal.
const HashHexLength = sha256.Size * 2

// Hash calcula H(prev || canonical): SHA-256 sobre el hash previo (ASCII) seguido de los bytes
// canónicos, en hexadecimal minúsculas. El registro génesis usa prev = "".
func Hash(prevHash string, canonical []byte) string {
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}

// HashRecord canonicaliza el registro en la versión dada y lo encadena con prevHash.
func (r *Registry) HashRecord(prevHash string, rec HashableRecord, version int) (string, error) {
	canonical, err := r.Canonicalize(rec, version)
	if err != nil {
		return "", err
	}
	return Hash(prevHash, canonical), nil
}
