package signer

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

var (
	ss58Prefix = []byte("SS58PRE")

	ErrInvalidAddress = errors.New("invalid ss58 address")
)

func ss58Checksum(data []byte) []byte {
	sum := blake2b.Sum512(append(append([]byte{}, ss58Prefix...), data...))
	return sum[:2]
}

// SS58Encode renders a 32 byte account id for the network prefix.
func SS58Encode(accountID []byte, network uint16) string {
	var data []byte
	if network < 64 {
		data = []byte{byte(network)}
	} else {
		data = []byte{
			byte((network&0b1111_1100)>>2) | 0b0100_0000,
			byte(network>>8) | byte(network&0b11)<<6,
		}
	}
	data = append(data, accountID...)
	return base58.Encode(append(data, ss58Checksum(data)...))
}

// SS58Decode returns the account id and network prefix of a 32 byte account address.
func SS58Decode(address string) ([]byte, uint16, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) < 3 {
		return nil, 0, ErrInvalidAddress
	}

	var (
		network   uint16
		prefixLen int
	)
	switch {
	case raw[0] < 64:
		network, prefixLen = uint16(raw[0]), 1
	case raw[0] < 128:
		lower := (raw[0]<<2)&0b1111_1100 | raw[1]>>6
		upper := raw[1] & 0b0011_1111
		network, prefixLen = uint16(lower)|uint16(upper)<<8, 2
	default:
		return nil, 0, fmt.Errorf("%w: reserved prefix byte %d", ErrInvalidAddress, raw[0])
	}

	if len(raw) != prefixLen+32+2 {
		return nil, 0, fmt.Errorf("%w: unexpected length %d", ErrInvalidAddress, len(raw))
	}
	body := raw[:len(raw)-2]
	sum := ss58Checksum(body)
	if sum[0] != raw[len(raw)-2] || sum[1] != raw[len(raw)-1] {
		return nil, 0, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	return append([]byte(nil), body[prefixLen:]...), network, nil
}
