package domain

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Deny is the zero value so an unset decision never permits.
	Deny Decision = iota
	Permit
)

func (d Decision) String() string {
	if d == Permit {
		return "permit"
	}
	return "deny"
}

// AuthorizeOwner permits an action only when actor is exactly the stored
// owner of the resource. Comparison is case-sensitive and an empty actor
// or owner always denies.
func AuthorizeOwner(actor, owner string) Decision {
	if actor == "" || owner == "" || actor != owner {
		return Deny
	}
	return Permit
}
