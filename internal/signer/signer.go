// Package signer holds the key pairs extrinsics are signed with.
package signer

import (
	"fmt"
	"strings"

	"github.com/ChainSafe/gossamer/lib/crypto/ed25519"
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"go-subxt/internal/codec"
	"go-subxt/internal/hasher"
)

type Scheme string

const (
	SchemeEd25519 Scheme = "ed25519"
	SchemeSr25519 Scheme = "sr25519"
	SchemeEcdsa   Scheme = "ecdsa"
)

// SignatureIndex is the MultiSignature variant of the scheme.
func (s Scheme) SignatureIndex() (byte, error) {
	switch s {
	case SchemeEd25519:
		return 0, nil
	case SchemeSr25519:
		return 1, nil
	case SchemeEcdsa:
		return 2, nil
	}
	return 0, fmt.Errorf("unknown signature scheme %q", s)
}

// Signer signs extrinsic payloads.
type Signer interface {
	PublicKey() []byte
	Sign(payload []byte) ([]byte, error)
	Scheme() Scheme
}

// AccountID is the 32 byte account a signer submits as. ECDSA accounts are the blake2_256
// of the compressed public key.
func AccountID(s Signer) []byte {
	if s.Scheme() == SchemeEcdsa {
		return hasher.Blake2b256(s.PublicKey())
	}
	return s.PublicKey()
}

// FromSeed builds a signer from a 32 byte hex seed (0x prefix optional).
func FromSeed(scheme Scheme, seedHex string) (Signer, error) {
	seed, err := codec.HexToBytes(strings.TrimSpace(seedHex))
	if err != nil {
		return nil, fmt.Errorf("signer seed: %w", err)
	}
	if len(seed) != 32 {
		return nil, fmt.Errorf("signer seed must be 32 bytes, got %d", len(seed))
	}

	switch scheme {
	case SchemeSr25519:
		kp, err := sr25519.NewKeypairFromSeed(seed)
		if err != nil {
			return nil, fmt.Errorf("sr25519 keypair: %w", err)
		}
		return &Sr25519{kp: kp}, nil
	case SchemeEd25519:
		kp, err := ed25519.NewKeypairFromSeed(seed)
		if err != nil {
			return nil, fmt.Errorf("ed25519 keypair: %w", err)
		}
		return &Ed25519{kp: kp}, nil
	case SchemeEcdsa:
		priv, _ := btcec.PrivKeyFromBytes(seed)
		return &Ecdsa{priv: priv}, nil
	}
	return nil, fmt.Errorf("unknown signature scheme %q", scheme)
}

type Sr25519 struct {
	kp *sr25519.Keypair
}

func (s *Sr25519) PublicKey() []byte {
	return s.kp.Public().Encode()
}

func (s *Sr25519) Sign(payload []byte) ([]byte, error) {
	return s.kp.Sign(payload)
}

func (s *Sr25519) Scheme() Scheme {
	return SchemeSr25519
}

type Ed25519 struct {
	kp *ed25519.Keypair
}

func (s *Ed25519) PublicKey() []byte {
	return s.kp.Public().Encode()
}

func (s *Ed25519) Sign(payload []byte) ([]byte, error) {
	return s.kp.Sign(payload)
}

func (s *Ed25519) Scheme() Scheme {
	return SchemeEd25519
}

// Ecdsa signs the blake2_256 of the payload over secp256k1. Signatures are r ++ s ++ v with
// v the recovery id.
type Ecdsa struct {
	priv *btcec.PrivateKey
}

func (s *Ecdsa) PublicKey() []byte {
	return s.priv.PubKey().SerializeCompressed()
}

func (s *Ecdsa) Sign(payload []byte) ([]byte, error) {
	compact, err := btcecdsa.SignCompact(s.priv, hasher.Blake2b256(payload), true)
	if err != nil {
		return nil, fmt.Errorf("ecdsa sign: %w", err)
	}
	// compact is [27 + 4 + recid, r, s]
	sig := make([]byte, 65)
	copy(sig, compact[1:])
	sig[64] = compact[0] - 27 - 4
	return sig, nil
}

func (s *Ecdsa) Scheme() Scheme {
	return SchemeEcdsa
}
