package models

// PermissionLevel is the hierarchy tier of an authenticated principal.
type PermissionLevel string

const (
	LevelClient    PermissionLevel = "L2_CLIENT"
	LevelSubClient PermissionLevel = "L3_SUBCLIENT"
	LevelAgent     PermissionLevel = "L4_AGENT"
	LevelAdmin     PermissionLevel = "L5_ADMIN"
)

// ValidPermissionLevel returns true if l is a recognized level.
func ValidPermissionLevel(l PermissionLevel) bool {
	switch l {
	case LevelClient, LevelSubClient, LevelAgent, LevelAdmin:
		return true
	default:
		return false
	}
}

// ClientProfile is the organizational identity a principal acts through.
// ParentClientID links a sub-client to its parent client profile.
type ClientProfile struct {
	ID             string          `json:"id"`
	Level          PermissionLevel `json:"level"`
	OrganizationID string          `json:"organization_id,omitempty"`
	ParentClientID string          `json:"parent_client_id,omitempty"`
}

// Principal is the verified caller handed back by the identity layer.
// ClientProfile is nil for principals without a profile (e.g. system admins).
type Principal struct {
	ID            string          `json:"id"`
	Level         PermissionLevel `json:"level"`
	ClientProfile *ClientProfile  `json:"client_profile,omitempty"`
}

// IsAdmin returns true for L5 principals.
func (p *Principal) IsAdmin() bool {
	return p.Level == LevelAdmin
}

// ProfileID returns the principal's own profile id, or empty when no profile is attached.
func (p *Principal) ProfileID() string {
	if p.ClientProfile == nil {
		return ""
	}
	return p.ClientProfile.ID
}

// Scope is the row-visibility predicate derived from a principal's level and
// organizational/parental relationships. Exactly one of the three shapes applies:
// All (admin), OrganizationID (agent org scope), or ProfileIDs (explicit allow-list).
// An empty scope (none of the three set) matches nothing.
type Scope struct {
	All            bool
	OrganizationID string
	ProfileIDs     []string
}

// AllowsProfile reports whether a row owned by profileID is visible under the scope.
// Organization scopes cannot be resolved without storage, so the caller supplies
// the owning profile's organization id (empty when unknown).
func (s Scope) AllowsProfile(profileID, organizationID string) bool {
	if s.All {
		return true
	}
	if s.OrganizationID != "" {
		return organizationID == s.OrganizationID
	}
	for _, id := range s.ProfileIDs {
		if id == profileID {
			return true
		}
	}
	return false
}
