// Package buildsystem projects a declarative build description
// (targets, nodes, commands, tools) onto the build engine's key space.
package buildsystem

import (
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/engine"
)

// KeyKind discriminates the build system's key space. The kind is the
// first byte of the encoded key; the remainder is the UTF-8 name or
// payload.
type KeyKind uint8

const (
	// KeyKindUnknown marks keys whose discriminator is not recognized.
	KeyKindUnknown KeyKind = 0
	// KeyKindCommand identifies execution of a named command.
	KeyKindCommand KeyKind = 'C'
	// KeyKindCustomTask identifies a task produced on demand by a tool.
	KeyKindCustomTask KeyKind = 'X'
	// KeyKindNode identifies production or validation of a node.
	KeyKindNode KeyKind = 'N'
	// KeyKindTarget identifies a named collection of node requests.
	KeyKindTarget KeyKind = 'T'
)

// BuildKey is a decoded build system key.
type BuildKey struct {
	Kind KeyKind
	Name string
}

// MakeCommandKey returns the key for executing the named command.
func MakeCommandKey(name string) BuildKey {
	return BuildKey{Kind: KeyKindCommand, Name: name}
}

// MakeCustomTaskKey returns the key for a tool-defined task payload.
func MakeCustomTaskKey(payload string) BuildKey {
	return BuildKey{Kind: KeyKindCustomTask, Name: payload}
}

// MakeNodeKey returns the key for producing or validating the named
// node.
func MakeNodeKey(name string) BuildKey {
	return BuildKey{Kind: KeyKindNode, Name: name}
}

// MakeTargetKey returns the key for building the named target.
func MakeTargetKey(name string) BuildKey {
	return BuildKey{Kind: KeyKindTarget, Name: name}
}

// ToData encodes the key as a one-byte discriminator followed by the
// name bytes.
func (k BuildKey) ToData() engine.KeyType {
	return engine.KeyType(string(byte(k.Kind)) + k.Name)
}

// BuildKeyFromData decodes an engine key. Only the first byte is
// consulted for the kind; an unknown discriminator is an error.
func BuildKeyFromData(data engine.KeyType) (BuildKey, error) {
	if len(data) == 0 {
		return BuildKey{}, domain.ErrTruncatedValue
	}
	kind := KeyKind(data[0])
	switch kind {
	case KeyKindCommand, KeyKindCustomTask, KeyKindNode, KeyKindTarget:
		return BuildKey{Kind: kind, Name: string(data[1:])}, nil
	}
	return BuildKey{}, domain.ErrUnknownKeyKind
}
