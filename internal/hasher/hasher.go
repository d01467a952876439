// Package hasher implements the storage hashing strategies declared by runtime metadata.
package hasher

import (
	"encoding/binary"
	"fmt"

	"github.com/OneOfOne/xxhash"
	"golang.org/x/crypto/blake2b"

	"go-subxt/internal/errs"
)

const (
	Blake2_128       = "Blake2_128"
	Blake2_256       = "Blake2_256"
	Blake2_128Concat = "Blake2_128Concat"
	Twox128          = "Twox128"
	Twox256          = "Twox256"
	Twox64Concat     = "Twox64Concat"
	Identity         = "Identity"
)

// Func hashes a pre-encoded storage key part.
type Func func(data []byte) []byte

var (
	byName = map[string]Func{
		Blake2_128:       Blake2b128,
		Blake2_256:       Blake2b256,
		Blake2_128Concat: blake2b128Concat,
		Twox128:          XX128,
		Twox256:          XX256,
		Twox64Concat:     xx64Concat,
		Identity:         identity,
	}

	// metadata hasher enum, in declaration order
	declared = []string{
		Blake2_128,
		Blake2_256,
		Blake2_128Concat,
		Twox128,
		Twox256,
		Twox64Concat,
		Identity,
	}
)

// ByName resolves a strategy id. Unknown ids are an encoding error, there is no fallback.
func ByName(name string) (Func, error) {
	fn, ok := byName[name]
	if !ok {
		return nil, errs.Encoding("hasher", fmt.Errorf("%w: %q", errs.ErrUnsupportedHasher, name))
	}
	return fn, nil
}

// Names lists every supported strategy id.
func Names() []string {
	out := make([]string, len(declared))
	copy(out, declared)
	return out
}

// Hash applies the named strategy to data.
func Hash(name string, data []byte) ([]byte, error) {
	fn, err := ByName(name)
	if err != nil {
		return nil, err
	}
	return fn(data), nil
}

func Blake2b128(data []byte) []byte {
	h, _ := blake2b.New(16, nil) // size 16 without key never fails
	h.Write(data)
	return h.Sum(nil)
}

func Blake2b256(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

func blake2b128Concat(data []byte) []byte {
	return append(Blake2b128(data), data...)
}

func xx(data []byte, rounds int) []byte {
	out := make([]byte, 8*rounds)
	for seed := 0; seed < rounds; seed++ {
		binary.LittleEndian.PutUint64(out[seed*8:], xxhash.Checksum64S(data, uint64(seed)))
	}
	return out
}

func XX64(data []byte) []byte {
	return xx(data, 1)
}

func XX128(data []byte) []byte {
	return xx(data, 2)
}

func XX256(data []byte) []byte {
	return xx(data, 4)
}

func xx64Concat(data []byte) []byte {
	return append(XX64(data), data...)
}

func identity(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
