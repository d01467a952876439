// Package extrinsic assembles, signs and inspects version 4 extrinsics.
package extrinsic

import (
	"fmt"

	"go-subxt/internal/codec"
	"go-subxt/internal/errs"
	"go-subxt/internal/hasher"
	"go-subxt/internal/signer"
	"go-subxt/models"
)

const (
	Version         = 4
	signedBit       = 0x80
	maxPayloadBytes = 256
)

type AddressFormat string

const (
	// AddressMultiAddress is MultiAddress::Id.
	AddressMultiAddress AddressFormat = "multiaddress"
	// AddressIndices is the indices lookup source with the account id marker.
	AddressIndices AddressFormat = "indices"
	// AddressID is the bare 32 byte account id.
	AddressID AddressFormat = "id"
)

// Signed is an encoded, signed extrinsic.
type Signed struct {
	Data []byte
	Hash models.Hash
}

// EncodeAddress renders accountID in the lookup format the runtime expects.
func EncodeAddress(format AddressFormat, accountID []byte) ([]byte, error) {
	if len(accountID) != 32 {
		return nil, errs.Encodingf("address", "account id must be 32 bytes, got %d", len(accountID))
	}
	switch format {
	case AddressMultiAddress, "":
		return append([]byte{0x00}, accountID...), nil
	case AddressIndices:
		return append([]byte{0xff}, accountID...), nil
	case AddressID:
		return append([]byte(nil), accountID...), nil
	}
	return nil, errs.Encodingf("address", "unknown address format %q", format)
}

// SigningPayload is call ++ extra ++ additional, hashed with blake2_256 when longer than
// 256 bytes.
func SigningPayload(call []byte, exts []Extension) []byte {
	payload := append([]byte(nil), call...)
	payload = append(payload, Extra(exts)...)
	payload = append(payload, Additional(exts)...)
	if len(payload) > maxPayloadBytes {
		return hasher.Blake2b256(payload)
	}
	return payload
}

// Sign builds the signed extrinsic for call.
func Sign(call []byte, s signer.Signer, format AddressFormat, exts []Extension) (Signed, error) {
	sigIndex, err := s.Scheme().SignatureIndex()
	if err != nil {
		return Signed{}, errs.Encoding("signature", err)
	}
	address, err := EncodeAddress(format, signer.AccountID(s))
	if err != nil {
		return Signed{}, err
	}
	sig, err := s.Sign(SigningPayload(call, exts))
	if err != nil {
		return Signed{}, errs.Encoding("signature", fmt.Errorf("sign: %w", err))
	}

	body := []byte{signedBit | Version}
	body = append(body, address...)
	body = append(body, sigIndex)
	body = append(body, sig...)
	body = append(body, Extra(exts)...)
	body = append(body, call...)

	data := codec.PrefixLength(body)
	hash, err := models.NewHash(hasher.Blake2b256(data))
	if err != nil {
		return Signed{}, errs.Encoding("extrinsic hash", err)
	}
	return Signed{Data: data, Hash: hash}, nil
}

// Hash is the blake2_256 of an encoded extrinsic as found in a block body.
func Hash(encoded []byte) models.Hash {
	var h models.Hash
	copy(h[:], hasher.Blake2b256(encoded))
	return h
}

// IndexIn returns the position of the extrinsic with hash h in a block body, or -1.
func IndexIn(extrinsics []models.HexBytes, h models.Hash) int {
	for i, xt := range extrinsics {
		if Hash(xt) == h {
			return i
		}
	}
	return -1
}
