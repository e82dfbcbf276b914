// Switchboard - Multi-agent conversational platform
// License: MIT
//
// Copyright (c) 2026 Switchboard contributors

package state

import "errors"

// Scope defines the visibility breadth of a shared state record
type Scope int

const (
	// ScopeGlobal indicates the record is visible across all sessions,
	// subject to its permission lists
	ScopeGlobal Scope = iota

	// ScopeSession indicates the record belongs to a single session
	ScopeSession
)

// String returns the string representation of the scope
func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeSession:
		return "session"
	default:
		return "unknown"
	}
}

// ParseScope parses a string into a Scope
func ParseScope(s string) (Scope, error) {
	switch s {
	case "global":
		return ScopeGlobal, nil
	case "session":
		return ScopeSession, nil
	default:
		return ScopeGlobal, ErrInvalidScope{s}
	}
}

// MarshalJSON implements json.Marshaler
func (s Scope) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Scope) UnmarshalJSON(data []byte) error {
	str, err := unquoteString(data)
	if err != nil {
		return err
	}
	parsed, err := ParseScope(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Permission represents the type of access being checked
type Permission int

const (
	// PermRead allows reading a shared state record
	PermRead Permission = iota

	// PermWrite allows replacing a record's data or permissions
	PermWrite

	// PermDelete allows removing the whole record
	PermDelete
)

// String returns the string representation of the permission
func (p Permission) String() string {
	switch p {
	case PermRead:
		return "read"
	case PermWrite:
		return "write"
	case PermDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// PermissionSet holds the per-action agent allow lists for one record.
// Membership is exact string match; there are no wildcards or groups.
type PermissionSet struct {
	Read   []string `json:"read"`
	Write  []string `json:"write"`
	Delete []string `json:"delete"`
}

// List returns the allow list for the given permission
func (ps PermissionSet) List(perm Permission) []string {
	switch perm {
	case PermRead:
		return ps.Read
	case PermWrite:
		return ps.Write
	case PermDelete:
		return ps.Delete
	default:
		return nil
	}
}

// Clone returns a deep copy of the permission set
func (ps PermissionSet) Clone() PermissionSet {
	return PermissionSet{
		Read:   append([]string(nil), ps.Read...),
		Write:  append([]string(nil), ps.Write...),
		Delete: append([]string(nil), ps.Delete...),
	}
}

// OwnerOnly returns the default permission set for a newly created record:
// only the owning agent may read, write or delete.
func OwnerOnly(agent string) PermissionSet {
	return PermissionSet{
		Read:   []string{agent},
		Write:  []string{agent},
		Delete: []string{agent},
	}
}

// ErrInvalidScope is returned when an invalid scope string is provided
type ErrInvalidScope struct {
	Scope string
}

func (e ErrInvalidScope) Error() string {
	return "invalid state scope: " + e.Scope
}

var (
	// ErrInvalidInput indicates malformed caller input, such as an empty
	// session id or a negative query limit.
	ErrInvalidInput = errors.New("state: invalid input")

	// ErrDenied indicates the acting agent lacks the required permission
	// for an existing record. It is never returned from read paths, which
	// report denial and absence indistinguishably.
	ErrDenied = errors.New("state: permission denied")
)

// helper function to unquote JSON strings
func unquoteString(data []byte) (string, error) {
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		return string(data[1 : len(data)-1]), nil
	}
	return "", errors.New("state: not a quoted string")
}
