package addressindex

import (
	"crypto/sha256"
	"encoding/hex"
)

// ScriptHash identifies an output script in the index and in the persistent
// status cache: the SHA-256 of the raw script, hex-encoded.
type ScriptHash [sha256.Size]byte

func NewScriptHash(script []byte) ScriptHash {
	return sha256.Sum256(script)
}

func (h ScriptHash) String() string {
	return hex.EncodeToString(h[:])
}
