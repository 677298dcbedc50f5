package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridianwealth/ledger/internal/models"
)

// CheckDuplicate performs the advisory natural-key lookup. The lookup is
// global — duplicate detection must see across visibility boundaries at write
// time. The result never blocks the caller: a positive hit is a message plus
// the existing row, and a failed lookup is recovered locally as "not a
// duplicate" with Recovered set so the fallback is visible at the call site.
func (s *Service) CheckDuplicate(ctx context.Context, tx *models.Transaction) *models.DuplicateCheck {
	existing, err := s.storage.Transactions().FindByNaturalKey(ctx, tx.NaturalKey())
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			return &models.DuplicateCheck{IsDuplicate: false}
		}
		s.logger.Warn().Err(err).
			Str("type", string(tx.Type)).
			Msg("Duplicate lookup failed; treating as not a duplicate")
		return &models.DuplicateCheck{IsDuplicate: false, Recovered: true}
	}

	return &models.DuplicateCheck{
		IsDuplicate: true,
		Message: fmt.Sprintf(
			"a %s transaction with the same account, date, security, and amount already exists (id %s)",
			existing.Type, existing.ID),
		Existing: existing,
	}
}
