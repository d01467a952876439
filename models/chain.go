package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go-subxt/internal/codec"
)

const HashLength = 32

// Hash is a 32 byte block or extrinsic hash, serialised as 0x prefixed hex.
type Hash [HashLength]byte

func NewHash(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashLength {
		return h, fmt.Errorf("hash must be %d bytes, got %d", HashLength, len(b))
	}
	copy(h[:], b)
	return h, nil
}

func HexToHash(s string) (Hash, error) {
	b, err := codec.HexToBytes(s)
	if err != nil {
		return Hash{}, err
	}
	return NewHash(b)
}

func (h Hash) Hex() string {
	return codec.BytesToHex(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HexBytes is a byte string carried as 0x prefixed hex in JSON.
type HexBytes []byte

func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(codec.BytesToHex(b)), nil
}

func (b *HexBytes) UnmarshalText(text []byte) error {
	if len(text) == 0 || string(text) == "0x" {
		*b = HexBytes{}
		return nil
	}
	raw, err := codec.HexToBytes(string(text))
	if err != nil {
		return err
	}
	*b = raw
	return nil
}

// BlockNumber is sent by the node as a hex quantity.
type BlockNumber uint64

func (n BlockNumber) MarshalText() ([]byte, error) {
	return []byte("0x" + strconv.FormatUint(uint64(n), 16)), nil
}

func (n *BlockNumber) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "0x")
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return fmt.Errorf("invalid block number %q: %w", text, err)
	}
	*n = BlockNumber(v)
	return nil
}

type Digest struct {
	Logs []HexBytes `json:"logs"`
}

type Header struct {
	ParentHash     Hash        `json:"parentHash"`
	Number         BlockNumber `json:"number"`
	StateRoot      Hash        `json:"stateRoot"`
	ExtrinsicsRoot Hash        `json:"extrinsicsRoot"`
	Digest         Digest      `json:"digest"`
}

type Block struct {
	Header     Header     `json:"header"`
	Extrinsics []HexBytes `json:"extrinsics"`
}

type SignedBlock struct {
	Block          Block           `json:"block"`
	Justifications json.RawMessage `json:"justifications,omitempty"`
}

// StorageChange is one key of a change set; a nil Value means the key was removed.
type StorageChange struct {
	Key   HexBytes
	Value *HexBytes
}

func (c *StorageChange) UnmarshalJSON(data []byte) error {
	var pair []*HexBytes
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 || pair[0] == nil {
		return fmt.Errorf("storage change: expected [key, value], got %s", data)
	}
	c.Key = *pair[0]
	c.Value = pair[1]
	return nil
}

func (c StorageChange) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{c.Key, c.Value})
}

type StorageChangeSet struct {
	Block   Hash            `json:"block"`
	Changes []StorageChange `json:"changes"`
}

type RuntimeVersion struct {
	SpecName           string            `json:"specName"`
	ImplName           string            `json:"implName"`
	AuthoringVersion   uint32            `json:"authoringVersion"`
	SpecVersion        uint32            `json:"specVersion"`
	ImplVersion        uint32            `json:"implVersion"`
	TransactionVersion uint32            `json:"transactionVersion"`
	Apis               []json.RawMessage `json:"apis,omitempty"`
}
