package metadata

import (
	"bytes"
	"fmt"

	scalecodec "github.com/itering/scale.go"
	"github.com/itering/scale.go/types"

	"go-subxt/internal/codec"
	"go-subxt/internal/errs"
	"go-subxt/internal/hasher"
)

const (
	minVersion = 10
	maxVersion = 12
)

var magic = []byte("meta")

type (
	Option func(*options)

	options struct {
		scheme PrefixScheme
	}
)

// WithPrefixScheme overrides the storage prefix scheme, PrefixModern by default.
func WithPrefixScheme(scheme PrefixScheme) Option {
	return func(o *options) {
		if scheme != "" {
			o.scheme = scheme
		}
	}
}

// Parse decodes a metadata blob (raw or 0x hex) of version 10, 11 or 12. On any error no
// registry is returned.
func Parse(raw []byte, opts ...Option) (*Registry, error) {
	o := options{scheme: PrefixModern}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheme != PrefixModern && o.scheme != PrefixLegacy {
		return nil, errs.Metadata("parse", fmt.Errorf("unknown storage prefix scheme %q", o.scheme))
	}

	if trimmed := bytes.TrimSpace(raw); bytes.HasPrefix(trimmed, []byte("0x")) {
		decoded, err := codec.HexToBytes(string(trimmed))
		if err != nil {
			return nil, errs.Metadata("parse", err)
		}
		raw = decoded
	}

	version, err := header(raw)
	if err != nil {
		return nil, errs.Metadata("parse", err)
	}
	reg, err := parse(raw, version, o.scheme)
	if err != nil {
		return nil, errs.Metadata("parse", err)
	}
	return reg, nil
}

func header(raw []byte) (int, error) {
	if len(raw) <= len(magic) {
		return 0, fmt.Errorf("%d bytes is too short for metadata", len(raw))
	}
	if !bytes.Equal(raw[:len(magic)], magic) {
		return 0, fmt.Errorf("bad magic number 0x%x", raw[:len(magic)])
	}
	v := int(raw[len(magic)])
	if v < minVersion || v > maxVersion {
		return 0, fmt.Errorf("unsupported metadata version %d", v)
	}
	return v, nil
}

// parse runs itering's metadata decoder and lifts its result into a Registry. The decoder
// panics on malformed input and clamps reads past the end, so the blob gets one sentinel
// byte appended: a well formed blob stops right before it.
func parse(raw []byte, version int, scheme PrefixScheme) (reg *Registry, err error) {
	defer func() {
		if r := recover(); r != nil {
			reg, err = nil, fmt.Errorf("decode: %v", r)
		}
	}()

	data := make([]byte, len(raw)+1)
	copy(data, raw)

	m := scalecodec.MetadataDecoder{}
	m.Init(data)
	if err := m.Process(); err != nil {
		return nil, err
	}
	switch end := m.Data.Offset; {
	case end > len(raw):
		return nil, fmt.Errorf("metadata truncated at %d bytes", len(raw))
	case end < len(raw):
		return nil, fmt.Errorf("%d trailing bytes after metadata", len(raw)-end)
	}

	decoded := m.Metadata
	return build(&decoded, version, scheme)
}

func build(decoded *types.MetadataStruct, version int, scheme PrefixScheme) (*Registry, error) {
	reg := newRegistry(version, scheme, decoded)
	var callModules, eventModules uint8
	for i, raw := range decoded.Metadata.Modules {
		m, err := module(raw, version, scheme)
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", i, err)
		}
		if version < 12 {
			// before v12 indices count only the modules that declare calls or events
			if m.hasCalls {
				m.Index = callModules
				callModules++
			}
			if m.hasEvents {
				m.EventIndex = eventModules
				eventModules++
			}
		} else {
			if raw.Index < 0 || raw.Index > 0xff {
				return nil, fmt.Errorf("module %q: index %d out of range", m.Name, raw.Index)
			}
			m.Index = uint8(raw.Index)
			m.EventIndex = m.Index
		}
		if err := reg.add(m); err != nil {
			return nil, err
		}
	}

	if version >= 11 {
		reg.signedExtensions = append([]string(nil), decoded.Extrinsic.SignedIdentifier...)
	}
	return reg, nil
}

func module(raw types.MetadataModules, version int, scheme PrefixScheme) (*Module, error) {
	m := newModule(raw.Name)
	m.StoragePrefix = raw.Prefix

	for _, item := range raw.Storage {
		s, err := storage(m, item, version, scheme)
		if err != nil {
			return nil, fmt.Errorf("%s storage %s: %w", m.Name, item.Name, err)
		}
		if err := m.addStorage(s); err != nil {
			return nil, fmt.Errorf("%s storage: %w", m.Name, err)
		}
	}

	if len(raw.Calls) > 256 {
		return nil, fmt.Errorf("%s: %d calls do not fit a u8 index", m.Name, len(raw.Calls))
	}
	m.hasCalls = len(raw.Calls) > 0
	for i, call := range raw.Calls {
		c := &CallDescriptor{Name: call.Name, Index: uint8(i), Docs: call.Docs}
		for _, a := range call.Args {
			c.Args = append(c.Args, Arg{Name: a.Name, Type: a.Type})
		}
		if err := m.addCall(c); err != nil {
			return nil, fmt.Errorf("%s calls: %w", m.Name, err)
		}
	}

	if len(raw.Events) > 256 {
		return nil, fmt.Errorf("%s: %d events do not fit a u8 index", m.Name, len(raw.Events))
	}
	m.hasEvents = len(raw.Events) > 0
	for i, ev := range raw.Events {
		m.events = append(m.events, &EventDescriptor{
			Name:  ev.Name,
			Index: uint8(i),
			Args:  append([]string(nil), ev.Args...),
			Docs:  ev.Docs,
		})
	}

	for _, c := range raw.Constants {
		if _, dup := m.constants[c.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate constant %q", m.Name, c.Name)
		}
		value, err := codec.HexToBytes(c.ConstantsValue)
		if err != nil {
			return nil, fmt.Errorf("%s constant %s: %w", m.Name, c.Name, err)
		}
		m.constants[c.Name] = &Constant{Name: c.Name, Type: c.Type, Value: value, Docs: c.Docs}
		m.constantOrder = append(m.constantOrder, c.Name)
	}

	for _, e := range raw.Errors {
		m.errors = append(m.errors, &ErrorDescriptor{Name: e.Name})
	}
	return m, nil
}

func storage(m *Module, item types.MetadataStorage, version int, scheme PrefixScheme) (*Storage, error) {
	s := &Storage{
		Module: m.Name,
		Prefix: m.StoragePrefix,
		Name:   item.Name,
		Docs:   item.Docs,
		scheme: scheme,
	}

	switch item.Modifier {
	case "Optional":
		s.Modifier = ModifierOptional
	case "Default":
		s.Modifier = ModifierDefault
	default:
		return nil, fmt.Errorf("invalid modifier %q", item.Modifier)
	}

	var err error
	switch item.Type.Origin {
	case "PlainType":
		s.Kind = StoragePlain
		s.ValueType = *item.Type.PlainType
	case "MapType":
		s.Kind = StorageMap
		mt := item.Type.MapType
		s.KeyType, s.ValueType = mt.Key, mt.Value
		if s.Hasher, err = storageHasher(mt.Hasher, version); err != nil {
			return nil, err
		}
	case "DoubleMapType":
		s.Kind = StorageDoubleMap
		mt := item.Type.DoubleMapType
		s.KeyType, s.Key2Type, s.ValueType = mt.Key, mt.Key2, mt.Value
		if s.Hasher, err = storageHasher(mt.Hasher, version); err != nil {
			return nil, err
		}
		if s.Key2Hasher, err = storageHasher(mt.Key2Hasher, version); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported storage entry type %q", item.Type.Origin)
	}

	def, err := codec.HexToBytes(item.Fallback)
	if err != nil {
		return nil, fmt.Errorf("default: %w", err)
	}
	if len(def) > 0 {
		s.DefaultBytes = def
	}
	return s, nil
}

// storageHasher validates a hasher name; Identity only exists from v11.
func storageHasher(name string, version int) (string, error) {
	if name == hasher.Identity && version < 11 {
		return "", errs.Encoding("hasher", fmt.Errorf("%w: %s before metadata v11", errs.ErrUnsupportedHasher, name))
	}
	if _, err := hasher.ByName(name); err != nil {
		return "", err
	}
	return name, nil
}
