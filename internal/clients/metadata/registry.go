package metadata

import (
	"fmt"

	"github.com/itering/scale.go/types"

	"go-subxt/internal/errs"
)

// Registry is an immutable snapshot of one metadata fetch. Module order is the on-chain
// order; indices are never recomputed.
type Registry struct {
	version          int
	scheme           PrefixScheme
	modules          []*Module
	byName           map[string]*Module
	byCallIndex      map[uint8]*Module
	signedExtensions []string

	// decoded is itering's view of the same blob, shared with the event decoder.
	decoded *types.MetadataStruct
}

// Module is one runtime module: its declared indices, calls, storage, events and constants.
type Module struct {
	Name string
	// Index addresses calls; EventIndex addresses events. They only differ before v12.
	Index         uint8
	EventIndex    uint8
	StoragePrefix string

	hasCalls  bool
	hasEvents bool

	calls     map[string]*CallDescriptor
	callOrder []*CallDescriptor

	storage      map[string]*Storage
	storageOrder []*Storage

	events []*EventDescriptor

	constants     map[string]*Constant
	constantOrder []string

	errors []*ErrorDescriptor
}

func newRegistry(version int, scheme PrefixScheme, decoded *types.MetadataStruct) *Registry {
	return &Registry{
		version:     version,
		scheme:      scheme,
		byName:      make(map[string]*Module),
		byCallIndex: make(map[uint8]*Module),
		decoded:     decoded,
	}
}

func newModule(name string) *Module {
	return &Module{
		Name:      name,
		calls:     make(map[string]*CallDescriptor),
		storage:   make(map[string]*Storage),
		constants: make(map[string]*Constant),
	}
}

func (r *Registry) add(m *Module) error {
	if _, dup := r.byName[m.Name]; dup {
		return fmt.Errorf("duplicate module %q", m.Name)
	}
	if m.hasCalls {
		if other, dup := r.byCallIndex[m.Index]; dup {
			return fmt.Errorf("modules %q and %q share index %d", other.Name, m.Name, m.Index)
		}
		r.byCallIndex[m.Index] = m
	}
	r.modules = append(r.modules, m)
	r.byName[m.Name] = m
	return nil
}

func (r *Registry) Version() int {
	return r.version
}

func (r *Registry) PrefixScheme() PrefixScheme {
	return r.scheme
}

// Modules returns the modules in on-chain order.
func (r *Registry) Modules() []*Module {
	out := make([]*Module, len(r.modules))
	copy(out, r.modules)
	return out
}

func (r *Registry) Module(name string) (*Module, error) {
	m, ok := r.byName[name]
	if !ok {
		return nil, errs.NotFound("module", name)
	}
	return m, nil
}

// Storage is a shortcut for Module(module).Storage(item).
func (r *Registry) Storage(module, item string) (*Storage, error) {
	m, err := r.Module(module)
	if err != nil {
		return nil, err
	}
	return m.Storage(item)
}

// Decoded returns the metadata as itering's decoder produced it; event decoding reads it.
func (r *Registry) Decoded() *types.MetadataStruct {
	return r.decoded
}

// SignedExtensions lists the extension names the runtime expects, in payload order. It is
// empty for v10 metadata.
func (r *Registry) SignedExtensions() []string {
	out := make([]string, len(r.signedExtensions))
	copy(out, r.signedExtensions)
	return out
}

// HasCalls reports whether the module declares a call section.
func (m *Module) HasCalls() bool {
	return m.hasCalls
}

func (m *Module) addCall(c *CallDescriptor) error {
	if _, dup := m.calls[c.Name]; dup {
		return fmt.Errorf("duplicate call %q", c.Name)
	}
	m.calls[c.Name] = c
	m.callOrder = append(m.callOrder, c)
	return nil
}

func (m *Module) addStorage(s *Storage) error {
	if _, dup := m.storage[s.Name]; dup {
		return fmt.Errorf("duplicate storage item %q", s.Name)
	}
	m.storage[s.Name] = s
	m.storageOrder = append(m.storageOrder, s)
	return nil
}

// Calls returns the call descriptors in index order.
func (m *Module) Calls() []*CallDescriptor {
	out := make([]*CallDescriptor, len(m.callOrder))
	copy(out, m.callOrder)
	return out
}

func (m *Module) CallDescriptor(name string) (*CallDescriptor, error) {
	c, ok := m.calls[name]
	if !ok {
		return nil, errs.NotFound("call", name)
	}
	return c, nil
}

func (m *Module) StorageItems() []*Storage {
	out := make([]*Storage, len(m.storageOrder))
	copy(out, m.storageOrder)
	return out
}

func (m *Module) Storage(name string) (*Storage, error) {
	s, ok := m.storage[name]
	if !ok {
		return nil, errs.NotFound("storage", name)
	}
	return s, nil
}

func (m *Module) Events() []*EventDescriptor {
	out := make([]*EventDescriptor, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Module) Event(name string) (*EventDescriptor, error) {
	for _, e := range m.events {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, errs.NotFound("event", name)
}

func (m *Module) Constants() []*Constant {
	out := make([]*Constant, 0, len(m.constantOrder))
	for _, name := range m.constantOrder {
		out = append(out, m.constants[name])
	}
	return out
}

func (m *Module) Constant(name string) (*Constant, error) {
	c, ok := m.constants[name]
	if !ok {
		return nil, errs.NotFound("constant", name)
	}
	return c, nil
}

func (m *Module) Errors() []*ErrorDescriptor {
	out := make([]*ErrorDescriptor, len(m.errors))
	copy(out, m.errors)
	return out
}
