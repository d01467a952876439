package metadata

import (
	"go-subxt/internal/codec"
	"go-subxt/internal/errs"
	"go-subxt/internal/hasher"
)

// PrefixKey is the part of every key of this item that does not depend on map keys.
func (s *Storage) PrefixKey() []byte {
	if s.scheme == PrefixLegacy {
		return hasher.XX128([]byte(s.Prefix + " " + s.Name))
	}
	return append(hasher.XX128([]byte(s.Prefix)), hasher.XX128([]byte(s.Name))...)
}

func (s *Storage) PlainKey() ([]byte, error) {
	if s.Kind != StoragePlain {
		return nil, s.shapeError("plain")
	}
	return s.PrefixKey(), nil
}

// MapKey derives the key for an already encoded map key.
func (s *Storage) MapKey(key []byte) ([]byte, error) {
	if s.Kind != StorageMap {
		return nil, s.shapeError("map")
	}
	hashed, err := hasher.Hash(s.Hasher, key)
	if err != nil {
		return nil, err
	}
	return append(s.PrefixKey(), hashed...), nil
}

func (s *Storage) DoubleMapKey(key1, key2 []byte) ([]byte, error) {
	if s.Kind != StorageDoubleMap {
		return nil, s.shapeError("double map")
	}
	h1, err := hasher.Hash(s.Hasher, key1)
	if err != nil {
		return nil, err
	}
	h2, err := hasher.Hash(s.Key2Hasher, key2)
	if err != nil {
		return nil, err
	}
	out := s.PrefixKey()
	out = append(out, h1...)
	return append(out, h2...), nil
}

// Key derives the key for any shape from zero, one or two encoded keys.
func (s *Storage) Key(keys ...[]byte) ([]byte, error) {
	switch {
	case s.Kind == StoragePlain && len(keys) == 0:
		return s.PlainKey()
	case s.Kind == StorageMap && len(keys) == 1:
		return s.MapKey(keys[0])
	case s.Kind == StorageDoubleMap && len(keys) == 2:
		return s.DoubleMapKey(keys[0], keys[1])
	}
	return nil, errs.Encodingf("storage", "%s.%s is a %s, got %d keys", s.Module, s.Name, s.Kind, len(keys))
}

func (s *Storage) shapeError(want string) error {
	return errs.Encodingf("storage", "%s.%s is a %s, not a %s", s.Module, s.Name, s.Kind, want)
}

// Default returns a copy of the declared default value bytes.
func (s *Storage) Default() []byte {
	return append([]byte(nil), s.DefaultBytes...)
}

// DefaultValue decodes the default through its declared type.
func (s *Storage) DefaultValue() (interface{}, error) {
	return codec.DecodeByType(s.ValueType, s.DefaultBytes)
}

// DefaultInto decodes the default bytes into a V.
func DefaultInto[V any](s *Storage) (V, error) {
	var v V
	if err := codec.Decode(s.DefaultBytes, &v); err != nil {
		return v, err
	}
	return v, nil
}
