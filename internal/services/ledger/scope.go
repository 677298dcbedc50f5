package ledger

import (
	"context"

	"github.com/meridianwealth/ledger/internal/interfaces"
	"github.com/meridianwealth/ledger/internal/models"
)

// scopeBuilder derives the visibility scope for one permission level.
type scopeBuilder func(ctx context.Context, profiles interfaces.ProfileStore, p *models.Principal) (models.Scope, error)

// scopeBuilders dispatches on permission level. An unmapped level yields the
// empty scope, which matches nothing — visibility is never widened by default.
var scopeBuilders = map[models.PermissionLevel]scopeBuilder{
	models.LevelAdmin:     adminScope,
	models.LevelAgent:     agentScope,
	models.LevelSubClient: subClientScope,
	models.LevelClient:    clientScope,
}

// BuildScope resolves the row-visibility scope for a principal. Only the
// sub-client builder touches storage (to resolve direct children); everything
// else is a pure function of the principal.
func BuildScope(ctx context.Context, profiles interfaces.ProfileStore, p *models.Principal) (models.Scope, error) {
	if p == nil {
		return models.Scope{}, &models.AuthenticationError{}
	}
	builder, ok := scopeBuilders[p.Level]
	if !ok {
		return models.Scope{}, nil
	}
	return builder(ctx, profiles, p)
}

// adminScope: L5 carries no profile-scoping predicate.
func adminScope(_ context.Context, _ interfaces.ProfileStore, _ *models.Principal) (models.Scope, error) {
	return models.Scope{All: true}, nil
}

// agentScope: L4 is scoped to the profile's organization when present,
// otherwise falls back to the agent's own profile only.
func agentScope(_ context.Context, _ interfaces.ProfileStore, p *models.Principal) (models.Scope, error) {
	if p.ClientProfile == nil {
		return models.Scope{}, nil
	}
	if p.ClientProfile.OrganizationID != "" {
		return models.Scope{OrganizationID: p.ClientProfile.OrganizationID}, nil
	}
	return models.Scope{ProfileIDs: []string{p.ClientProfile.ID}}, nil
}

// subClientScope: L3 sees its own profile plus direct children only —
// grandchildren stay invisible.
func subClientScope(ctx context.Context, profiles interfaces.ProfileStore, p *models.Principal) (models.Scope, error) {
	if p.ClientProfile == nil {
		return models.Scope{}, nil
	}
	ids := []string{p.ClientProfile.ID}
	children, err := profiles.ListChildren(ctx, p.ClientProfile.ID)
	if err != nil {
		return models.Scope{}, err
	}
	for _, child := range children {
		ids = append(ids, child.ID)
	}
	return models.Scope{ProfileIDs: ids}, nil
}

// clientScope: L2 is pinned to its own profile id regardless of other filters.
func clientScope(_ context.Context, _ interfaces.ProfileStore, p *models.Principal) (models.Scope, error) {
	if p.ClientProfile == nil {
		return models.Scope{}, nil
	}
	return models.Scope{ProfileIDs: []string{p.ClientProfile.ID}}, nil
}

// BuildFilter composes the repository predicate from a resolved scope and the
// caller's narrowing filters. Pure and deterministic: unrecognized account
// prefixes are dropped, the end date is widened to end-of-day so a same-day
// range covers the whole day, and nothing here can widen visibility beyond
// the scope.
func BuildFilter(scope models.Scope, filters models.ListFilters) models.TransactionFilter {
	f := models.TransactionFilter{Scope: scope}

	if filters.AccountID != "" {
		f.MasterAccountID, f.ClientAccountID = models.SplitAccountRef(filters.AccountID)
	}
	f.StartDate = filters.StartDate
	if filters.EndDate != nil {
		eod := EndOfDay(*filters.EndDate)
		f.EndDate = &eod
	}
	f.Type = filters.Type
	f.Status = filters.Status
	f.SecurityID = filters.SecurityID

	return f
}
