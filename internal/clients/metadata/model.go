package metadata

type (
	StorageKind int
	Modifier    int
	// PrefixScheme selects how module and item names become the storage key prefix.
	PrefixScheme string
)

const (
	StoragePlain StorageKind = iota
	StorageMap
	StorageDoubleMap
)

const (
	ModifierOptional Modifier = iota
	ModifierDefault
)

const (
	// PrefixModern is Twox128(prefix) ++ Twox128(item).
	PrefixModern PrefixScheme = "modern"
	// PrefixLegacy is Twox128("<prefix> <item>").
	PrefixLegacy PrefixScheme = "legacy"
)

func (k StorageKind) String() string {
	switch k {
	case StoragePlain:
		return "plain"
	case StorageMap:
		return "map"
	case StorageDoubleMap:
		return "double map"
	}
	return "unknown"
}

func (m Modifier) String() string {
	if m == ModifierOptional {
		return "optional"
	}
	return "default"
}

type (
	Arg struct {
		Name string
		Type string
	}

	CallDescriptor struct {
		Name  string
		Index uint8
		Args  []Arg
		Docs  []string
	}

	EventDescriptor struct {
		Name  string
		Index uint8
		Args  []string
		Docs  []string
	}

	Constant struct {
		Name  string
		Type  string
		Value []byte
		Docs  []string
	}

	ErrorDescriptor struct {
		Name string
		Docs []string
	}

	// Storage describes one storage item. Key derivation is pure and uses only these fields.
	Storage struct {
		Module   string
		Prefix   string
		Name     string
		Modifier Modifier
		Kind     StorageKind

		// Hasher hashes the map key, or the first key of a double map.
		Hasher     string
		KeyType    string
		Key2Type   string
		Key2Hasher string
		ValueType  string

		DefaultBytes []byte
		Docs         []string

		scheme PrefixScheme
	}

	// EncodedCall is a call ready to be signed: module index, call index, then the
	// concatenated argument bytes.
	EncodedCall struct {
		ModuleIndex uint8
		CallIndex   uint8
		Module      string
		Call        string
		Args        [][]byte
		Data        []byte
	}
)
