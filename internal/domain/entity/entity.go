// Package entity models the Managed Entity described in spec §3: an
// addressable configuration subject such as a network interface, firewall
// zone, DHCP subnet, syslog action file, or container.
package entity

import (
	"regexp"

	"github.com/kernelkit/confd/internal/domain/confderr"
)

// Kind identifies the category of a managed entity.
type Kind string

const (
	KindInterface Kind = "interface"
	KindZone      Kind = "firewall-zone"
	KindSubnet    Kind = "dhcp-subnet"
	KindSyslog    Kind = "syslog-action"
	KindContainer Kind = "container"
)

// maxInterfaceNameLen bounds interface-like entity names, grounded on the
// kernel's IFNAMSIZ (16 bytes including the NUL terminator, so 15 usable
// bytes; the spec states "bounded (<= 16 bytes)").
const maxInterfaceNameLen = 16

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_.@-]+$`)

// Entity is an addressable configuration subject. Identity is the
// (Kind, Name) pair; ParentKind is set when the entity's lifecycle is
// scoped to another entity (e.g. a bridge port's parent is its bridge).
type Entity struct {
	Name       string
	Kind       Kind
	ParentKind Kind
}

// Validate enforces the name-uniqueness-adjacent invariants that are
// local to a single entity value (global uniqueness within a kind is
// enforced by the registry that holds the full set, not here).
func (e Entity) Validate() error {
	if e.Name == "" {
		return confderr.New(confderr.ErrCodeMissing, "entity name is required", nil)
	}
	if !namePattern.MatchString(e.Name) {
		return confderr.New(confderr.ErrCodeValidation, "entity name contains invalid characters",
			map[string]interface{}{"name": e.Name})
	}
	if e.Kind == KindInterface && len(e.Name) >= maxInterfaceNameLen {
		return confderr.New(confderr.ErrCodeValidation, "interface name exceeds kernel limit",
			map[string]interface{}{"name": e.Name, "limit": maxInterfaceNameLen - 1})
	}
	if e.Kind == "" {
		return confderr.New(confderr.ErrCodeMissing, "entity kind is required", nil)
	}
	return nil
}

// Set is a uniqueness-checked collection of entities, keyed by (Kind, Name).
type Set struct {
	items map[Kind]map[string]Entity
}

// NewSet constructs an empty entity set.
func NewSet() *Set {
	return &Set{items: make(map[Kind]map[string]Entity)}
}

// Add inserts e, rejecting a duplicate (Kind, Name) pair (spec §3 invariant:
// "entity names within a kind are unique").
func (s *Set) Add(e Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	byName, ok := s.items[e.Kind]
	if !ok {
		byName = make(map[string]Entity)
		s.items[e.Kind] = byName
	}
	if _, exists := byName[e.Name]; exists {
		return confderr.New(confderr.ErrCodeDuplicate, "entity already registered",
			map[string]interface{}{"kind": string(e.Kind), "name": e.Name})
	}
	byName[e.Name] = e
	return nil
}

// Get looks up an entity by kind and name.
func (s *Set) Get(kind Kind, name string) (Entity, bool) {
	byName, ok := s.items[kind]
	if !ok {
		return Entity{}, false
	}
	e, ok := byName[name]
	return e, ok
}
