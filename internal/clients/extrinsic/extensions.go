package extrinsic

import (
	"encoding/binary"

	"go-subxt/internal/codec"
	"go-subxt/internal/errs"
	"go-subxt/models"
)

const (
	CheckSpecVersion         = "CheckSpecVersion"
	CheckTxVersion           = "CheckTxVersion"
	CheckGenesis             = "CheckGenesis"
	CheckEra                 = "CheckEra"
	CheckMortality           = "CheckMortality"
	CheckNonce               = "CheckNonce"
	CheckWeight              = "CheckWeight"
	ChargeTransactionPayment = "ChargeTransactionPayment"
	TakeFees                 = "TakeFees"
	ChargeAssetTxPayment     = "ChargeAssetTxPayment"
	CheckNonZeroSender       = "CheckNonZeroSender"
	CheckMetadataHash        = "CheckMetadataHash"
	PrevalidateAttests       = "PrevalidateAttests"
)

// immortalEra is the encoded Era::Immortal.
const immortalEra = 0x00

// DefaultExtensions is the set used when the metadata does not declare one (v10).
func DefaultExtensions() []string {
	return []string{CheckGenesis, CheckEra, CheckNonce, CheckWeight, TakeFees}
}

type (
	// Params carries the values the signed extensions commit to.
	Params struct {
		SpecVersion uint32
		TxVersion   uint32
		GenesisHash models.Hash
		Nonce       uint64
		Tip         uint64
	}

	// Extension is one resolved signed extension: Extra travels in the extrinsic,
	// Additional is only signed.
	Extension struct {
		Name       string
		Extra      []byte
		Additional []byte
	}
)

func u32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

// ResolveExtensions maps extension names to their encoded extra and additional data. An
// unknown name is an encoding error: signing without it would produce an invalid payload.
func ResolveExtensions(names []string, p Params) ([]Extension, error) {
	if len(names) == 0 {
		names = DefaultExtensions()
	}
	genesis := p.GenesisHash[:]

	out := make([]Extension, 0, len(names))
	for _, name := range names {
		ext := Extension{Name: name}
		switch name {
		case CheckSpecVersion:
			ext.Additional = u32(p.SpecVersion)
		case CheckTxVersion:
			ext.Additional = u32(p.TxVersion)
		case CheckGenesis:
			ext.Additional = append([]byte(nil), genesis...)
		case CheckEra, CheckMortality:
			// immortal transactions commit to the genesis hash as their era block
			ext.Extra = []byte{immortalEra}
			ext.Additional = append([]byte(nil), genesis...)
		case CheckNonce:
			ext.Extra = codec.EncodeCompact(p.Nonce)
		case ChargeTransactionPayment, TakeFees:
			ext.Extra = codec.EncodeCompact(p.Tip)
		case ChargeAssetTxPayment:
			// tip, then Option<AssetId>::None
			ext.Extra = append(codec.EncodeCompact(p.Tip), 0x00)
		case CheckMetadataHash:
			// mode disabled, no hash
			ext.Extra = []byte{0x00}
			ext.Additional = []byte{0x00}
		case CheckWeight, CheckNonZeroSender, PrevalidateAttests:
		default:
			return nil, errs.Encodingf("signed extension", "unsupported signed extension %q", name)
		}
		out = append(out, ext)
	}
	return out, nil
}

// Extra concatenates the extra data of exts in order.
func Extra(exts []Extension) []byte {
	var out []byte
	for _, e := range exts {
		out = append(out, e.Extra...)
	}
	return out
}

// Additional concatenates the additional signed data of exts in order.
func Additional(exts []Extension) []byte {
	var out []byte
	for _, e := range exts {
		out = append(out, e.Additional...)
	}
	return out
}
