package clan

// Privilege represents a single clan privilege bitflag.
type Privilege int32

// Clan privilege bits. The client interprets the mask by these positions.
const (
	PrivNone              Privilege = 0
	PrivCLJoinClan        Privilege = 1 << 1
	PrivCLGiveTitles      Privilege = 1 << 2
	PrivCLViewWarehouse   Privilege = 1 << 3
	PrivCLManageRanks     Privilege = 1 << 4
	PrivCLPledgeWar       Privilege = 1 << 5
	PrivCLDismiss         Privilege = 1 << 6
	PrivCLRegisterCrest   Privilege = 1 << 7
	PrivCLApprentice      Privilege = 1 << 8
	PrivCLMemberFame      Privilege = 1 << 9
	PrivCLAccessAirship   Privilege = 1 << 10
	PrivCHOpenDoor        Privilege = 1 << 11
	PrivCHSetFunctions    Privilege = 1 << 12
	PrivCHAuction         Privilege = 1 << 13
	PrivCHDismiss         Privilege = 1 << 14
	PrivCHManageFunctions Privilege = 1 << 15
	PrivCSOpenDoor        Privilege = 1 << 16
	PrivCSManorAdmin      Privilege = 1 << 17
	PrivCSManageSiege     Privilege = 1 << 18
	PrivCSUseFunctions    Privilege = 1 << 19
	PrivCSDismiss         Privilege = 1 << 20
	PrivCSVault           Privilege = 1 << 21
	PrivCSMercenaries     Privilege = 1 << 22
	PrivCSManageFunctions Privilege = 1 << 23

	// PrivAll combines all privileges (24 bits).
	PrivAll Privilege = (1 << 24) - 1
)

// DefaultRankPrivileges returns the default privilege mask for a given power grade.
// Power grade 1 = leader (all), higher grades = fewer privileges.
func DefaultRankPrivileges(powerGrade int32) Privilege {
	switch powerGrade {
	case 1:
		return PrivAll
	case 2:
		return PrivCLJoinClan | PrivCLGiveTitles | PrivCLViewWarehouse |
			PrivCLManageRanks | PrivCLPledgeWar | PrivCLDismiss |
			PrivCLRegisterCrest
	case 3:
		return PrivCLJoinClan | PrivCLGiveTitles | PrivCLViewWarehouse |
			PrivCLDismiss
	case 4:
		return PrivCLViewWarehouse
	default:
		return PrivNone
	}
}

// Has checks if the privilege mask contains the given privilege.
func (p Privilege) Has(priv Privilege) bool {
	return p&priv == priv
}

// Add adds a privilege to the mask.
func (p Privilege) Add(priv Privilege) Privilege {
	return p | priv
}

// Remove removes a privilege from the mask.
func (p Privilege) Remove(priv Privilege) Privilege {
	return p &^ priv
}

// Mask returns the raw bitmask stored on the player.
func (p Privilege) Mask() int32 {
	return int32(p)
}
