package codec

import (
	"math/big"
)

// EncodeCompact returns the SCALE compact form of n.
func EncodeCompact(n uint64) []byte {
	return EncodeCompactBig(new(big.Int).SetUint64(n))
}

// EncodeCompactBig encodes values wider than 64 bits, e.g. u128 balances and tips.
// gossamer's codec writes *big.Int in compact form.
func EncodeCompactBig(n *big.Int) []byte {
	if n == nil || n.Sign() <= 0 {
		return []byte{0}
	}
	return MustEncode(n)
}

// PrefixLength prepends the compact length of data, the SCALE `Vec<u8>` layout.
func PrefixLength(data []byte) []byte {
	if data == nil {
		data = []byte{}
	}
	return MustEncode(data)
}
