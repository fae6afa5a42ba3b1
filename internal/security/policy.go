// Package security decides whether a navigation requested by embedded content
// may proceed. Policy holds the declarative settings; Filter evaluates URLs
// against a Policy. Both are safe for concurrent use once constructed.
package security

import (
	"maps"
	"slices"
)

// Policy describes which hosts count as local and which ports they may use.
// A Policy is treated as immutable after construction; use Clone or WithPorts
// to derive a modified copy.
type Policy struct {
	// AllowLocalhost permits the literal host "localhost".
	AllowLocalhost bool
	// AllowLoopback permits loopback IP literals (127.0.0.0/8, ::1).
	AllowLoopback bool
	// AllowedPorts is consulted only when StrictMode is set.
	AllowedPorts PortSet
	// StrictMode requires the navigation port to be in AllowedPorts.
	StrictMode bool
}

// DefaultAllowedPorts are the ports permitted by DefaultPolicy.
var DefaultAllowedPorts = []uint16{80, 443, 3000, 8080, 5173}

// DefaultPolicy returns the policy used when no configuration is present:
// localhost and loopback allowed, strict mode on with DefaultAllowedPorts.
func DefaultPolicy() Policy {
	return Policy{
		AllowLocalhost: true,
		AllowLoopback:  true,
		AllowedPorts:   NewPortSet(DefaultAllowedPorts...),
		StrictMode:     true,
	}
}

// Clone returns a deep copy of p.
func (p Policy) Clone() Policy {
	c := p
	c.AllowedPorts = maps.Clone(p.AllowedPorts)
	if c.AllowedPorts == nil {
		c.AllowedPorts = PortSet{}
	}
	return c
}

// WithPorts returns a copy of p whose allow-list also contains ports.
func (p Policy) WithPorts(ports ...uint16) Policy {
	c := p.Clone()
	for _, port := range ports {
		c.AllowedPorts[port] = struct{}{}
	}
	return c
}

// PortSet is a set of TCP ports.
type PortSet map[uint16]struct{}

// NewPortSet builds a PortSet from ports. Duplicates are collapsed.
func NewPortSet(ports ...uint16) PortSet {
	s := make(PortSet, len(ports))
	for _, p := range ports {
		s[p] = struct{}{}
	}
	return s
}

// Contains reports whether port is in the set.
func (s PortSet) Contains(port uint16) bool {
	_, ok := s[port]
	return ok
}

// Sorted returns the members in ascending order.
func (s PortSet) Sorted() []uint16 {
	return slices.Sorted(maps.Keys(s))
}
