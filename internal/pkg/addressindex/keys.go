package addressindex

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// Key layout of the index store. Header and undo keys embed the zero-padded
// height so a prefix scan walks them in chain order.
const (
	headerKeyPrefix   = "h:"
	scriptKeyPrefix   = "s:"
	outpointKeyPrefix = "o:"
	undoKeyPrefix     = "u:"
)

func newHeaderKey(height int) string {
	return fmt.Sprintf("%s%012d", headerKeyPrefix, height)
}

func newScriptKey(scriptHash ScriptHash) string {
	return scriptKeyPrefix + scriptHash.String()
}

func newScriptKeyFromHex(scriptHashHex string) string {
	return scriptKeyPrefix + scriptHashHex
}

func newOutpointKey(out wire.OutPoint) string {
	return fmt.Sprintf("%s%s:%d", outpointKeyPrefix, out.Hash, out.Index)
}

func newUndoKey(height int) string {
	return fmt.Sprintf("%s%012d", undoKeyPrefix, height)
}
