package models

type transition struct {
	from HazardStatus
	to   HazardStatus
}

// transitions is the complete hazard state machine:
//
//	PENDING_AUTHORITY --VERIFY--> VERIFIED --RESOLVE--> RESOLVED
//	PENDING_AUTHORITY --REJECT--> RESOLVED
//
// RESOLVED has no outgoing edge.
var transitions = map[AuditAction]transition{
	ActionVerify:  {from: StatusPendingAuthority, to: StatusVerified},
	ActionReject:  {from: StatusPendingAuthority, to: StatusResolved},
	ActionResolve: {from: StatusVerified, to: StatusResolved},
}

// NextStatus returns the status a hazard in current moves to under action,
// and false when the action is not legal from current.
func NextStatus(current HazardStatus, action AuditAction) (HazardStatus, bool) {
	t, ok := transitions[action]
	if !ok || t.from != current {
		return 0, false
	}
	return t.to, true
}

// RequiredStatus is the only status from which action may be applied.
func RequiredStatus(action AuditAction) (HazardStatus, bool) {
	t, ok := transitions[action]
	return t.from, ok
}

// IsTerminal reports whether no action can move a hazard out of s.
func IsTerminal(s HazardStatus) bool {
	for _, t := range transitions {
		if t.from == s {
			return false
		}
	}
	return true
}
