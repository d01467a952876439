package metadata

import (
	"go-subxt/internal/codec"
	"go-subxt/internal/errs"
)

// Call encodes name with pre-encoded arguments. The number of arguments must match the
// declaration; their encoding is the caller's business.
func (m *Module) Call(name string, args ...[]byte) (EncodedCall, error) {
	if !m.hasCalls {
		return EncodedCall{}, errs.NotFound("call", name)
	}
	c, err := m.CallDescriptor(name)
	if err != nil {
		return EncodedCall{}, err
	}
	if len(args) != len(c.Args) {
		return EncodedCall{}, errs.Encodingf("call", "%s.%s takes %d arguments, got %d", m.Name, name, len(c.Args), len(args))
	}

	size := 2
	for _, a := range args {
		size += len(a)
	}
	data := make([]byte, 0, size)
	data = append(data, m.Index, c.Index)
	kept := make([][]byte, len(args))
	for i, a := range args {
		data = append(data, a...)
		kept[i] = append([]byte(nil), a...)
	}

	return EncodedCall{
		ModuleIndex: m.Index,
		CallIndex:   c.Index,
		Module:      m.Name,
		Call:        name,
		Args:        kept,
		Data:        data,
	}, nil
}

// CallWithValues encodes each value by the declared argument type string.
func (m *Module) CallWithValues(name string, values ...interface{}) (EncodedCall, error) {
	c, err := m.CallDescriptor(name)
	if err != nil {
		return EncodedCall{}, err
	}
	if len(values) != len(c.Args) {
		return EncodedCall{}, errs.Encodingf("call", "%s.%s takes %d arguments, got %d", m.Name, name, len(c.Args), len(values))
	}
	args := make([][]byte, len(values))
	for i, v := range values {
		if args[i], err = codec.EncodeByType(c.Args[i].Type, v); err != nil {
			return EncodedCall{}, err
		}
	}
	return m.Call(name, args...)
}

// Bytes is the encoded call.
func (c EncodedCall) Bytes() []byte {
	return c.Data
}

// DecodeCall resolves the module and call of an encoded call and returns its argument bytes.
func (r *Registry) DecodeCall(data []byte) (module, call string, args []byte, err error) {
	if len(data) < 2 {
		return "", "", nil, errs.Decodingf("call", "need module and call index, got %d bytes", len(data))
	}
	m, ok := r.byCallIndex[data[0]]
	if !ok {
		return "", "", nil, errs.Decodingf("call", "no module with call index %d", data[0])
	}
	if int(data[1]) >= len(m.callOrder) {
		return "", "", nil, errs.Decodingf("call", "module %s has no call with index %d", m.Name, data[1])
	}
	args = make([]byte, len(data)-2)
	copy(args, data[2:])
	return m.Name, m.callOrder[data[1]].Name, args, nil
}
