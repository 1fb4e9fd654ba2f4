package models

import "strings"

const nameKeyPrefix = "name:"

type keyKind uint8

const (
	keyName keyKind = iota
	keyID
)

// ProjectKey identifies a project for client-local annotations. It is the
// server id when one exists, otherwise the project name. Two projects without
// an id that share a name map to the same key.
type ProjectKey struct {
	kind  keyKind
	value string
}

// IDKey returns a key backed by a server identifier
func IDKey(id string) ProjectKey {
	return ProjectKey{kind: keyID, value: id}
}

// NameKey returns a key backed by the project name
func NameKey(name string) ProjectKey {
	return ProjectKey{kind: keyName, value: name}
}

// DeriveKey computes the annotation key of a project
func DeriveKey(p Project) ProjectKey {
	if p.ID.Present() {
		return IDKey(p.ID.String())
	}
	return NameKey(p.ProjectName)
}

// ParseProjectKey is the inverse of ProjectKey.String
func ParseProjectKey(s string) ProjectKey {
	if name, ok := strings.CutPrefix(s, nameKeyPrefix); ok {
		return NameKey(name)
	}
	return IDKey(s)
}

// IsNameFallback reports whether the key was derived from the name
func (k ProjectKey) IsNameFallback() bool {
	return k.kind == keyName
}

// IsEmpty reports a key with neither id nor name
func (k ProjectKey) IsEmpty() bool {
	return k.kind == keyName && k.value == ""
}

// String returns the persisted form: the id, or "name:" followed by the name
func (k ProjectKey) String() string {
	if k.kind == keyID {
		return k.value
	}
	return nameKeyPrefix + k.value
}
