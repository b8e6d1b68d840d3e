package ledger

import (
	"bytes"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode, _ = cbor.CoreDetEncOptions().EncMode()

	// setTag is the CBOR prefix of tag 258, used by the ledger to mark sets.
	setTag = []byte{0xd9, 0x01, 0x02}
)

// Marshal encodes v with deterministic CBOR encoding options.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}

func stripSetTag(data []byte) ([]byte, bool) {
	if bytes.HasPrefix(data, setTag) {
		return data[len(setTag):], true
	}
	return data, false
}

func withSetTag(data []byte, tagged bool) []byte {
	if !tagged {
		return data
	}
	return append(append([]byte{}, setTag...), data...)
}

func isCBORMap(data []byte) bool {
	return len(data) > 0 && data[0]>>5 == 5
}
