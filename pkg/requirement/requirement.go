package requirement

import (
	"sort"
	"strings"
)

// Role is the logical category of a file that belongs to a toolset installation.
type Role uint8

const (
	// All matches every file of an installation
	All Role = 0x0
	// Core is the primary executable
	Core Role = 0x1
	// Cli is the command-line executable
	Cli Role = 0x2
	// PacketLib is the packet capture library shipped with the windows build
	PacketLib Role = 0x3
	// WintunLib is the tunnel driver library shipped with the windows build
	WintunLib Role = 0x4
	// Other is every file name that isn't recognized
	Other Role = 0x20
)

var roleNames = map[Role]string{
	All:       "all",
	Core:      "core",
	Cli:       "cli",
	PacketLib: "packet",
	WintunLib: "wintun",
	Other:     "other",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}

	return "other"
}

// MarshalText encodes the role by name, so role lists read well in logs and json
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Set is a deduplicated collection of roles.
type Set map[Role]struct{}

// NewSet creates a set from the given roles
func NewSet(roles ...Role) Set {
	set := Set{}
	for _, role := range roles {
		set[role] = struct{}{}
	}

	return set
}

// Has checks if the set contains the role
func (s Set) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// IsAll reports whether the set selects every file. An empty set selects everything as well.
func (s Set) IsAll() bool {
	return len(s) == 0 || s.Has(All)
}

// Matches checks if a file with the given role is selected by the set
func (s Set) Matches(role Role) bool {
	return s.IsAll() || s.Has(role)
}

// List returns the roles of the set in ascending order
func (s Set) List() []Role {
	roles := make([]Role, 0, len(s))
	for role := range s {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool {
		return roles[i] < roles[j]
	})

	return roles
}

// Encode converts the roles into a bitmask where every role occupies the bit of its ordinal.
// A set that contains All always encodes to 0.
func Encode(roles ...Role) uint64 {
	set := NewSet(roles...)
	if set.Has(All) {
		return 0
	}

	var mask uint64
	for role := range set {
		mask |= 1 << uint64(role)
	}

	return mask
}

// Decode converts a bitmask back into roles. Ordinals that aren't in known decode to Other,
// and a zero mask decodes to All.
func Decode(mask uint64, known []Role) []Role {
	if mask == 0 {
		return []Role{All}
	}

	knownSet := NewSet(known...)
	roles := []Role{}
	for i := 0; i < 64; i++ {
		if mask&(1<<uint64(i)) == 0 {
			continue
		}

		role := Role(i)
		if i > int(Other) || !knownSet.Has(role) {
			role = Other
		}
		roles = append(roles, role)
	}

	return roles
}

// Parse converts a role name as printed by String back into a role
func Parse(name string) (Role, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for role, roleName := range roleNames {
		if roleName == name {
			return role, true
		}
	}

	return Other, false
}
