// Package metadatatest builds metadata blobs for tests.
package metadatatest

import (
	"encoding/binary"

	"go-subxt/internal/codec"
)

const (
	HasherBlake2_128Concat byte = 2
	HasherTwox64Concat     byte = 5
	HasherIdentity         byte = 6
)

type (
	Storage struct {
		Name       string
		Modifier   byte
		Kind       byte
		Hasher     byte
		Key        string
		Key2       string
		Value      string
		Key2Hasher byte
		Default    []byte
	}

	Call struct {
		Name string
		Args [][2]string
	}

	Event struct {
		Name string
		Args []string
	}

	Const struct {
		Name  string
		Type  string
		Value []byte
	}

	Module struct {
		Name      string
		Prefix    string
		Storage   []Storage
		Calls     []Call
		HasCalls  bool
		Events    []Event
		HasEvents bool
		Constants []Const
		Errors    []string
		Index     byte
	}
)

type writer struct {
	buf []byte
}

func (w *writer) u8(b byte) {
	w.buf = append(w.buf, b)
}

func (w *writer) boolean(b bool) {
	if b {
		w.u8(1)
		return
	}
	w.u8(0)
}

func (w *writer) vecLen(n int) {
	w.buf = append(w.buf, codec.EncodeCompact(uint64(n))...)
}

func (w *writer) bytes(b []byte) {
	w.buf = append(w.buf, codec.PrefixLength(b)...)
}

func (w *writer) str(s string) {
	w.bytes([]byte(s))
}

func (w *writer) strs(ss ...string) {
	w.vecLen(len(ss))
	for _, s := range ss {
		w.str(s)
	}
}

// Encode renders modules as a metadata blob of the given version (10, 11 or 12).
func Encode(version byte, modules []Module, extensions []string) []byte {
	w := &writer{}
	w.buf = append(w.buf, 'm', 'e', 't', 'a', version)
	w.vecLen(len(modules))
	for _, m := range modules {
		w.str(m.Name)

		w.boolean(m.Prefix != "")
		if m.Prefix != "" {
			w.str(m.Prefix)
			w.vecLen(len(m.Storage))
			for _, s := range m.Storage {
				w.str(s.Name)
				w.u8(s.Modifier)
				w.u8(s.Kind)
				switch s.Kind {
				case 0:
					w.str(s.Value)
				case 1:
					w.u8(s.Hasher)
					w.str(s.Key)
					w.str(s.Value)
					w.boolean(false)
				case 2:
					w.u8(s.Hasher)
					w.str(s.Key)
					w.str(s.Key2)
					w.str(s.Value)
					w.u8(s.Key2Hasher)
				}
				w.bytes(s.Default)
				w.strs("docs for " + s.Name)
			}
		}

		w.boolean(m.HasCalls)
		if m.HasCalls {
			w.vecLen(len(m.Calls))
			for _, c := range m.Calls {
				w.str(c.Name)
				w.vecLen(len(c.Args))
				for _, a := range c.Args {
					w.str(a[0])
					w.str(a[1])
				}
				w.strs()
			}
		}

		w.boolean(m.HasEvents)
		if m.HasEvents {
			w.vecLen(len(m.Events))
			for _, e := range m.Events {
				w.str(e.Name)
				w.strs(e.Args...)
				w.strs()
			}
		}

		w.vecLen(len(m.Constants))
		for _, c := range m.Constants {
			w.str(c.Name)
			w.str(c.Type)
			w.bytes(c.Value)
			w.strs()
		}

		w.vecLen(len(m.Errors))
		for _, e := range m.Errors {
			w.str(e)
			w.strs()
		}

		if version >= 12 {
			w.u8(m.Index)
		}
	}

	if version >= 11 {
		w.u8(4)
		w.strs(extensions...)
	}
	return w.buf
}

// U128 is v as a little endian u128.
func U128(v uint64) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out, v)
	return out
}

func System() Module {
	return Module{
		Name:   "System",
		Prefix: "System",
		Storage: []Storage{
			{Name: "Account", Modifier: 1, Kind: 1, Hasher: HasherBlake2_128Concat, Key: "T::AccountId", Value: "AccountInfo<T::Index, T::AccountData>", Default: make([]byte, 72)},
			{Name: "AccountNonce", Modifier: 1, Kind: 1, Hasher: HasherBlake2_128Concat, Key: "T::AccountId", Value: "T::Index", Default: make([]byte, 4)},
			{Name: "BlockHash", Modifier: 1, Kind: 1, Hasher: HasherTwox64Concat, Key: "T::BlockNumber", Value: "T::Hash", Default: make([]byte, 32)},
			{Name: "Events", Modifier: 1, Kind: 0, Value: "Vec<EventRecord<T::Event, T::Hash>>", Default: []byte{0}},
		},
		HasCalls:  true,
		Calls:     []Call{{Name: "remark", Args: [][2]string{{"_remark", "Vec<u8>"}}}},
		HasEvents: true,
		Events:    []Event{{Name: "ExtrinsicSuccess", Args: []string{"DispatchInfo"}}, {Name: "ExtrinsicFailed", Args: []string{"DispatchError", "DispatchInfo"}}},
		Index:     0,
	}
}

func Session(index byte) Module {
	return Module{
		Name:   "Session",
		Prefix: "Session",
		Storage: []Storage{
			{Name: "CurrentIndex", Modifier: 1, Kind: 0, Value: "SessionIndex", Default: make([]byte, 4)},
		},
		Index: index,
	}
}

func Balances(index byte) Module {
	dest := [2]string{"dest", "<T::Lookup as StaticLookup>::Source"}
	value := [2]string{"value", "Compact<T::Balance>"}
	return Module{
		Name:   "Balances",
		Prefix: "Balances",
		Storage: []Storage{
			{Name: "TotalIssuance", Modifier: 1, Kind: 0, Value: "T::Balance", Default: U128(0)},
			{Name: "FreeBalance", Modifier: 1, Kind: 1, Hasher: HasherBlake2_128Concat, Key: "T::AccountId", Value: "T::Balance", Default: U128(0)},
		},
		HasCalls: true,
		Calls: []Call{
			{Name: "set_balance", Args: [][2]string{{"who", "<T::Lookup as StaticLookup>::Source"}, {"new_free", "Compact<T::Balance>"}, {"new_reserved", "Compact<T::Balance>"}}},
			{Name: "transfer", Args: [][2]string{dest, value}},
			{Name: "transfer_keep_alive", Args: [][2]string{dest, value}},
		},
		HasEvents: true,
		Events:    []Event{{Name: "Transfer", Args: []string{"AccountId", "AccountId", "Balance"}}},
		Constants: []Const{{Name: "ExistentialDeposit", Type: "T::Balance", Value: U128(500)}},
		Errors:    []string{"InsufficientBalance", "ExistentialDeposit"},
		Index:     index,
	}
}

// V12 has System 0, Timestamp 1, Balances 2, Session 5 and Staking 6.
func V12() []byte {
	timestamp := Module{
		Name:   "Timestamp",
		Prefix: "Timestamp",
		Storage: []Storage{
			{Name: "Now", Modifier: 1, Kind: 0, Value: "T::Moment", Default: []byte{0xe8, 0x03, 0, 0, 0, 0, 0, 0}},
		},
		HasCalls: true,
		Calls:    []Call{{Name: "set", Args: [][2]string{{"now", "Compact<T::Moment>"}}}},
		Index:    1,
	}
	staking := Module{
		Name:   "Staking",
		Prefix: "Staking",
		Storage: []Storage{
			{Name: "Bonded", Modifier: 0, Kind: 1, Hasher: HasherIdentity, Key: "T::AccountId", Value: "T::AccountId"},
			{Name: "ErasStakers", Modifier: 1, Kind: 2, Hasher: HasherTwox64Concat, Key: "EraIndex", Key2: "T::AccountId", Key2Hasher: HasherTwox64Concat, Value: "Exposure<T::AccountId, BalanceOf<T>>", Default: []byte{0, 0, 0}},
		},
		HasCalls: true,
		Calls:    []Call{{Name: "chill"}},
		Index:    6,
	}
	return Encode(12, []Module{
		System(),
		timestamp,
		Balances(2),
		Session(5),
		staking,
	}, []string{
		"CheckSpecVersion", "CheckTxVersion", "CheckGenesis", "CheckMortality",
		"CheckNonce", "CheckWeight", "ChargeTransactionPayment",
	})
}

// V11 puts a module without calls between System and Balances.
func V11() []byte {
	return Encode(11, []Module{
		System(),
		Session(0),
		Balances(0),
	}, []string{"CheckGenesis", "CheckEra", "CheckNonce", "CheckWeight", "TakeFees"})
}

func V10() []byte {
	return Encode(10, []Module{
		System(),
		Balances(0),
	}, nil)
}
