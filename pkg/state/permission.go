// Switchboard - Multi-agent conversational platform
// License: MIT
//
// Copyright (c) 2026 Switchboard contributors

package state

// Allowed reports whether the acting agent in ctx may perform the given
// action on the record. The decision is pure: exact membership in the
// record's per-action allow list, with one hard rule — the owner is always
// authorized for all three actions, whatever the lists say.
func Allowed(ctx Context, record *SharedState, perm Permission) bool {
	if record == nil {
		return false
	}
	if ctx.Agent != "" && ctx.Agent == record.Owner {
		return true
	}
	return containsAgent(record.Permissions.List(perm), ctx.Agent)
}

func containsAgent(list []string, agent string) bool {
	if agent == "" {
		return false
	}
	for _, a := range list {
		if a == agent {
			return true
		}
	}
	return false
}
