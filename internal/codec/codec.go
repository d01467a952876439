// Package codec adapts the SCALE libraries used by the client: gossamer's reflection codec
// for typed Go values and itering's type-string codec for values whose shape is only known
// from runtime metadata.
package codec

import (
	"fmt"
	"strings"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/pkg/scale"

	"go-subxt/internal/errs"
)

// Encode SCALE encodes a typed Go value.
func Encode(v interface{}) ([]byte, error) {
	b, err := scale.Marshal(v)
	if err != nil {
		return nil, errs.Encoding("scale", err)
	}
	return b, nil
}

// Decode SCALE decodes data into dst, which must be a pointer.
func Decode(data []byte, dst interface{}) error {
	if err := scale.Unmarshal(data, dst); err != nil {
		return errs.Decoding("scale", fmt.Errorf("into %T: %w", dst, err))
	}
	return nil
}

// MustEncode is meant for values whose encoding cannot fail (fixed size integers, arrays).
func MustEncode(v interface{}) []byte {
	b, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}

// HexToBytes accepts input with or without the 0x prefix.
func HexToBytes(in string) ([]byte, error) {
	in = strings.TrimSpace(in)
	if !strings.HasPrefix(in, "0x") {
		in = "0x" + in
	}
	b, err := common.HexToBytes(in)
	if err != nil {
		return nil, errs.Decoding("hex", err)
	}
	return b, nil
}

// BytesToHex returns the 0x prefixed hex form used on the wire.
func BytesToHex(b []byte) string {
	return common.BytesToHex(b)
}
