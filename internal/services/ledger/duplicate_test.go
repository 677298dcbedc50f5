package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianwealth/ledger/internal/common"
	"github.com/meridianwealth/ledger/internal/interfaces"
	"github.com/meridianwealth/ledger/internal/models"
)

func TestCheckDuplicateMiss(t *testing.T) {
	svc, _ := newTestService(t)

	check := svc.CheckDuplicate(context.Background(), buyFor("client-1", date(2024, time.January, 1), 100))

	assert.False(t, check.IsDuplicate)
	assert.False(t, check.Recovered)
	assert.Nil(t, check.Existing)
}

func TestCheckDuplicateDistinguishesAccountType(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	day := date(2024, time.January, 1)

	_, err := svc.Create(ctx, adminPrincipal(), buyFor("client-1", day, 100), interfaces.CreateOptions{})
	require.NoError(t, err)

	// Same date, type, security, and amount on a client account is a
	// different natural key than the same values on a master account.
	other := buyFor("client-1", day, 100)
	other.MasterAccountID = nil
	other.ClientAccountID = strPtr("ma-1")

	check := svc.CheckDuplicate(ctx, CalculateFields(other, svc.calendar))
	assert.False(t, check.IsDuplicate)
}

// failingLookupManager wraps a storage manager with a transaction store whose
// natural-key lookup always fails.
type failingLookupManager struct {
	interfaces.StorageManager
}

type failingLookupStore struct {
	interfaces.TransactionStore
}

func (m *failingLookupManager) Transactions() interfaces.TransactionStore {
	return &failingLookupStore{TransactionStore: m.StorageManager.Transactions()}
}

func (s *failingLookupStore) FindByNaturalKey(context.Context, models.NaturalKey) (*models.Transaction, error) {
	return nil, errors.New("index unavailable")
}

func TestCheckDuplicateRecoversFromLookupFailure(t *testing.T) {
	m := seedProfiles(t)
	svc := NewService(&failingLookupManager{StorageManager: m}, common.NewSilentLogger(), common.LedgerConfig{
		MaxBulkRows: 1000, MaxPageLimit: 500, DefaultPageLimit: 50,
	})

	check := svc.CheckDuplicate(context.Background(), buyFor("client-1", date(2024, time.January, 1), 100))

	assert.False(t, check.IsDuplicate)
	assert.True(t, check.Recovered)
}

func TestCreateProceedsWhenDuplicateLookupFails(t *testing.T) {
	m := seedProfiles(t)
	svc := NewService(&failingLookupManager{StorageManager: m}, common.NewSilentLogger(), common.LedgerConfig{
		MaxBulkRows: 1000, MaxPageLimit: 500, DefaultPageLimit: 50,
	})

	result, err := svc.Create(context.Background(), adminPrincipal(),
		buyFor("client-1", date(2024, time.January, 1), 100),
		interfaces.CreateOptions{CheckDuplicates: true})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Created.ID)
	require.NotNil(t, result.DuplicateAdvisory)
	assert.False(t, result.DuplicateAdvisory.IsDuplicate)
}
