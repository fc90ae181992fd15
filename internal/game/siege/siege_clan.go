package siege

// ClanRole is the side a clan takes in a siege.
type ClanRole int32

const (
	RoleOwner           ClanRole = -1
	RoleDefender        ClanRole = 0
	RoleAttacker        ClanRole = 1
	RoleDefenderPending ClanRole = 2
)

// Registration is a clan's entry in a siege.
type Registration struct {
	ClanID   int32
	ClanName string
	Role     ClanRole
}

// IsAttacker reports whether the clan attacks.
func (r Registration) IsAttacker() bool { return r.Role == RoleAttacker }

// IsDefender reports whether the clan defends, approved or as owner.
func (r Registration) IsDefender() bool {
	return r.Role == RoleDefender || r.Role == RoleOwner
}

// IsPending reports whether the clan awaits defender approval.
func (r Registration) IsPending() bool { return r.Role == RoleDefenderPending }
