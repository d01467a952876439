package extrinsic

import (
	"bytes"
	"fmt"
	"io"

	libscale "github.com/ChainSafe/gossamer/lib/scale"

	"go-subxt/internal/errs"
	"go-subxt/models"
)

type (
	// CallDecoder resolves module and call names from an encoded call.
	CallDecoder interface {
		DecodeCall(data []byte) (module, call string, args []byte, err error)
	}

	// Summary describes an extrinsic found in a block body.
	Summary struct {
		Hash    models.Hash
		Version uint8
		Signed  bool
		// Address is the raw lookup source of signed extrinsics.
		Address []byte
		Nonce   uint64
		Tip     uint64
		Module  string
		Call    string
		Args    []byte
	}
)

// Inspect decodes the envelope of an encoded extrinsic. Signed extrinsics need the runtime's
// extension list to find where the call starts.
func Inspect(encoded []byte, calls CallDecoder, format AddressFormat, extensions []string) (Summary, error) {
	s := Summary{Hash: Hash(encoded)}
	if err := inspect(newEnvelope(encoded), &s, calls, format, extensions); err != nil {
		return s, errs.Decoding("extrinsic", err)
	}
	return s, nil
}

// envelope reads an extrinsic with gossamer's stream decoder and keeps track of the offset
// so the signer address can be sliced out of the input.
type envelope struct {
	data []byte
	buf  *bytes.Reader
	dec  *libscale.Decoder
}

func newEnvelope(data []byte) *envelope {
	buf := bytes.NewReader(data)
	return &envelope{data: data, buf: buf, dec: &libscale.Decoder{Reader: buf}}
}

func (e *envelope) offset() int {
	return len(e.data) - e.buf.Len()
}

func (e *envelope) remaining() int {
	return e.buf.Len()
}

func (e *envelope) readByte() (byte, error) {
	b, err := e.dec.ReadByte()
	if err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	return b, nil
}

func (e *envelope) compact() (uint64, error) {
	if e.remaining() == 0 {
		return 0, io.ErrUnexpectedEOF
	}
	return e.dec.DecodeUnsignedInteger()
}

func (e *envelope) skip(n int) error {
	if n > e.remaining() {
		return fmt.Errorf("%w: want %d bytes at offset %d", io.ErrUnexpectedEOF, n, e.offset())
	}
	_, err := e.buf.Seek(int64(n), io.SeekCurrent)
	return err
}

// skipVec steps over a length prefixed byte vector without allocating it.
func (e *envelope) skipVec() error {
	n, err := e.compact()
	if err != nil {
		return err
	}
	if n > uint64(e.remaining()) {
		return fmt.Errorf("%w: vector of %d bytes", io.ErrUnexpectedEOF, n)
	}
	return e.skip(int(n))
}

func inspect(e *envelope, s *Summary, calls CallDecoder, format AddressFormat, extensions []string) error {
	length, err := e.compact()
	if err != nil {
		return fmt.Errorf("length: %w", err)
	}
	if length != uint64(e.remaining()) {
		return fmt.Errorf("length prefix %d, body %d", length, e.remaining())
	}
	v, err := e.readByte()
	if err != nil {
		return err
	}
	s.Signed = v&signedBit != 0
	s.Version = v &^ signedBit
	if s.Version != Version {
		return fmt.Errorf("unsupported extrinsic version %d", s.Version)
	}

	if s.Signed {
		start := e.offset()
		if err := skipAddress(e, format); err != nil {
			return fmt.Errorf("address: %w", err)
		}
		s.Address = append([]byte(nil), e.data[start:e.offset()]...)
		if err := skipSignature(e); err != nil {
			return fmt.Errorf("signature: %w", err)
		}
		if len(extensions) == 0 {
			extensions = DefaultExtensions()
		}
		if err := readExtra(e, s, extensions); err != nil {
			return fmt.Errorf("extra: %w", err)
		}
	}

	call := e.data[e.offset():]
	s.Module, s.Call, s.Args, err = calls.DecodeCall(call)
	return err
}

func skipAddress(e *envelope, format AddressFormat) error {
	switch format {
	case AddressID:
		return e.skip(32)
	case AddressIndices:
		b, err := e.readByte()
		if err != nil {
			return err
		}
		switch b {
		case 0xff:
			err = e.skip(32)
		case 0xfc:
			err = e.skip(2)
		case 0xfd:
			err = e.skip(4)
		case 0xfe:
			err = e.skip(8)
		}
		return err
	}

	variant, err := e.readByte()
	if err != nil {
		return err
	}
	switch variant {
	case 0, 3:
		err = e.skip(32)
	case 1:
		_, err = e.compact()
	case 2:
		err = e.skipVec()
	case 4:
		err = e.skip(20)
	default:
		err = fmt.Errorf("unknown multiaddress variant %d", variant)
	}
	return err
}

func skipSignature(e *envelope) error {
	variant, err := e.readByte()
	if err != nil {
		return err
	}
	switch variant {
	case 0, 1:
		err = e.skip(64)
	case 2:
		err = e.skip(65)
	default:
		err = fmt.Errorf("unknown signature variant %d", variant)
	}
	return err
}

func readExtra(e *envelope, s *Summary, extensions []string) error {
	for _, name := range extensions {
		var err error
		switch name {
		case CheckEra, CheckMortality:
			var first byte
			if first, err = e.readByte(); err == nil && first != immortalEra {
				_, err = e.readByte()
			}
		case CheckNonce:
			s.Nonce, err = e.compact()
		case ChargeTransactionPayment, TakeFees:
			s.Tip, err = e.compact()
		case ChargeAssetTxPayment:
			if s.Tip, err = e.compact(); err == nil {
				var some byte
				if some, err = e.readByte(); err == nil && some != 0 {
					err = fmt.Errorf("%s with an asset id is not supported", name)
				}
			}
		case CheckMetadataHash:
			_, err = e.readByte()
		case CheckSpecVersion, CheckTxVersion, CheckGenesis, CheckWeight, CheckNonZeroSender, PrevalidateAttests:
		default:
			err = fmt.Errorf("unsupported signed extension %q", name)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
