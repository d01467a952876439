package codec

import (
	"fmt"
	"os"

	"github.com/itering/scale.go/source"
	"github.com/itering/scale.go/types"
	"github.com/itering/scale.go/utiles"

	"go-subxt/internal/errs"
)

func init() {
	types.RuntimeType{}.Reg()
}

// RegisterTypes loads a chain specific type registry in the polkadot.js JSON format, as
// found in decoder types files.
func RegisterTypes(raw []byte) {
	types.RegCustomTypes(source.LoadTypeRegistry(raw))
}

// RegisterTypesFile is RegisterTypes over a file path; an empty path is a no-op.
func RegisterTypesFile(path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read decoder types file: %w", err)
	}
	RegisterTypes(raw)
	return nil
}

// EncodeByType encodes value according to a metadata type string such as
// "Compact<Balance>" or "<T::Lookup as StaticLookup>::Source".
func EncodeByType(typeString string, value interface{}) (encoded []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			encoded = nil
			err = errs.Encoding("type "+typeString, fmt.Errorf("%v", r))
		}
	}()

	return utiles.HexToBytes(types.Encode(typeString, value)), nil
}

// DecodeByType decodes data according to a metadata type string. The result is the generic
// tree produced by the dynamic decoder (maps, slices, strings and numbers).
func DecodeByType(typeString string, data []byte) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = errs.Decoding("type "+typeString, fmt.Errorf("%v", r))
		}
	}()

	decoder := types.ScaleDecoder{}
	decoder.Init(types.ScaleBytes{Data: data}, nil)
	return decoder.ProcessAndUpdateData(typeString), nil
}
