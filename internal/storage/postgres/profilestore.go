package postgres

import (
	"context"
	"fmt"

	"github.com/meridianwealth/ledger/internal/interfaces"
	"github.com/meridianwealth/ledger/internal/models"
)

// Compile-time interface check
var _ interfaces.ProfileStore = (*ProfileStore)(nil)

// ProfileStore reads client profiles for permission-scope resolution.
type ProfileStore struct {
	db querier
}

func (s *ProfileStore) Get(ctx context.Context, id string) (*models.ClientProfile, error) {
	var p models.ClientProfile
	var orgID, parentID *string
	err := s.db.QueryRow(ctx, `
		SELECT id, level, organization_id, parent_client_id
		FROM client_profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Level, &orgID, &parentID)
	if err != nil {
		return nil, mapError(err, "client profile", id)
	}
	if orgID != nil {
		p.OrganizationID = *orgID
	}
	if parentID != nil {
		p.ParentClientID = *parentID
	}
	return &p, nil
}

func (s *ProfileStore) ListChildren(ctx context.Context, parentID string) ([]*models.ClientProfile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, level, organization_id, parent_client_id
		FROM client_profiles WHERE parent_client_id = $1
		ORDER BY id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query child profiles: %w", err)
	}
	defer rows.Close()

	var children []*models.ClientProfile
	for rows.Next() {
		var p models.ClientProfile
		var orgID, parent *string
		if err := rows.Scan(&p.ID, &p.Level, &orgID, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan child profile: %w", err)
		}
		if orgID != nil {
			p.OrganizationID = *orgID
		}
		if parent != nil {
			p.ParentClientID = *parent
		}
		children = append(children, &p)
	}
	return children, rows.Err()
}
