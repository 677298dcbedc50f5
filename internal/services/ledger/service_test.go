package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianwealth/ledger/internal/common"
	"github.com/meridianwealth/ledger/internal/interfaces"
	"github.com/meridianwealth/ledger/internal/models"
	"github.com/meridianwealth/ledger/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Manager) {
	t.Helper()
	m := seedProfiles(t)
	svc := NewService(m, common.NewSilentLogger(), common.LedgerConfig{
		SettlementCalendar: "legacy",
		MaxBulkRows:        1000,
		MaxPageLimit:       500,
		DefaultPageLimit:   50,
	})
	return svc, m
}

func adminPrincipal() *models.Principal {
	return &models.Principal{ID: "u-admin", Level: models.LevelAdmin}
}

func clientPrincipal(profileID string) *models.Principal {
	return &models.Principal{
		ID:            "u-" + profileID,
		Level:         models.LevelClient,
		ClientProfile: &models.ClientProfile{ID: profileID, Level: models.LevelClient},
	}
}

// buyFor builds a valid BUY owned by the given profile.
func buyFor(profileID string, day time.Time, amount float64) *models.Transaction {
	qty := amount / 100
	return &models.Transaction{
		TransactionDate: day,
		Type:            models.TxBuy,
		SecurityID:      strPtr("AAPL"),
		Quantity:        decPtr(qty),
		Price:           decPtr(100),
		MasterAccountID: strPtr("ma-1"),
		ClientProfileID: profileID,
	}
}

func TestCreateRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := buyFor("client-1", date(2024, time.January, 1), 1000)
	input.Amount = nil

	result, err := svc.Create(ctx, adminPrincipal(), input, interfaces.CreateOptions{})
	require.NoError(t, err)

	created := result.Created
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusDraft, created.EntryStatus)
	require.NotNil(t, created.Amount)
	assert.Equal(t, "1000.00", created.Amount.StringFixed(2))
	require.NotNil(t, created.SettlementDate)
	assert.Equal(t, date(2024, time.January, 3), *created.SettlementDate)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := svc.storage.Transactions().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestCreateValidationFailure(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), adminPrincipal(), &models.Transaction{}, interfaces.CreateOptions{})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Violations, "transaction_date is required")
}

func TestCreateRejectsInvalidEntryStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := buyFor("client-1", date(2024, time.January, 1), 100)
	input.EntryStatus = "BOGUS"

	_, err := svc.Create(ctx, adminPrincipal(), input, interfaces.CreateOptions{})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Violations, "entry_status must be DRAFT or POSTED")

	result, err := svc.List(ctx, adminPrincipal(), models.ListFilters{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, result.Pagination.Total)
}

func TestCreateCrossProfileDenied(t *testing.T) {
	svc, _ := newTestService(t)

	input := buyFor("client-1", date(2024, time.January, 1), 100)
	_, err := svc.Create(context.Background(), clientPrincipal("child-1"), input, interfaces.CreateOptions{})

	var authz *models.AuthorizationError
	require.ErrorAs(t, err, &authz)

	// The denial left nothing behind.
	result, err := svc.List(context.Background(), adminPrincipal(), models.ListFilters{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, result.Pagination.Total)
}

func TestCreateNilPrincipal(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), nil, buyFor("client-1", date(2024, time.January, 1), 100), interfaces.CreateOptions{})

	var authn *models.AuthenticationError
	assert.ErrorAs(t, err, &authn)
}

func TestCreateDuplicateAdvisory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	opts := interfaces.CreateOptions{CheckDuplicates: true}
	day := date(2024, time.January, 1)

	first, err := svc.Create(ctx, adminPrincipal(), buyFor("client-1", day, 1000), opts)
	require.NoError(t, err)
	require.NotNil(t, first.DuplicateAdvisory)
	assert.False(t, first.DuplicateAdvisory.IsDuplicate)

	// Same natural key: advisory fires but the write still succeeds.
	second, err := svc.Create(ctx, adminPrincipal(), buyFor("client-1", day, 1000), opts)
	require.NoError(t, err)
	require.NotNil(t, second.DuplicateAdvisory)
	assert.True(t, second.DuplicateAdvisory.IsDuplicate)
	assert.Contains(t, second.DuplicateAdvisory.Message, first.Created.ID)
	require.NotNil(t, second.DuplicateAdvisory.Existing)
	assert.Equal(t, first.Created.ID, second.DuplicateAdvisory.Existing.ID)

	result, err := svc.List(ctx, adminPrincipal(), models.ListFilters{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pagination.Total)
}

func TestCreateDuplicateCheckDisabled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	day := date(2024, time.January, 1)

	_, err := svc.Create(ctx, adminPrincipal(), buyFor("client-1", day, 1000), interfaces.CreateOptions{})
	require.NoError(t, err)

	second, err := svc.Create(ctx, adminPrincipal(), buyFor("client-1", day, 1000), interfaces.CreateOptions{})
	require.NoError(t, err)
	assert.Nil(t, second.DuplicateAdvisory)
}

func TestUpdateMergesAndRevalidates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, adminPrincipal(), buyFor("client-1", date(2024, time.January, 1), 1000), interfaces.CreateOptions{})
	require.NoError(t, err)

	desc := "rebalance"
	posted := models.StatusPosted
	updated, err := svc.Update(ctx, adminPrincipal(), created.Created.ID, interfaces.UpdateInput{
		Description: &desc,
		EntryStatus: &posted,
	})
	require.NoError(t, err)
	assert.Equal(t, "rebalance", updated.Description)
	assert.Equal(t, models.StatusPosted, updated.EntryStatus)
	// Untouched fields survive the merge.
	assert.Equal(t, "1000", updated.Amount.String())
}

func TestUpdateRejectsInconsistentAmount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, adminPrincipal(), buyFor("client-1", date(2024, time.January, 1), 1000), interfaces.CreateOptions{})
	require.NoError(t, err)

	_, err = svc.Update(ctx, adminPrincipal(), created.Created.ID, interfaces.UpdateInput{Quantity: decPtr(99)})

	var validation *models.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestUpdateRejectsInvalidEntryStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, adminPrincipal(), buyFor("client-1", date(2024, time.January, 1), 1000), interfaces.CreateOptions{})
	require.NoError(t, err)

	bogus := models.EntryStatus("ARCHIVED")
	_, err = svc.Update(ctx, adminPrincipal(), created.Created.ID, interfaces.UpdateInput{EntryStatus: &bogus})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Violations, "entry_status must be DRAFT or POSTED")

	// The stored row is untouched.
	fetched, err := svc.storage.Transactions().GetByID(ctx, created.Created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, fetched.EntryStatus)
}

func TestUpdateUnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Update(context.Background(), adminPrincipal(), "missing", interfaces.UpdateInput{})

	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestUpdateCrossProfileDenied(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, adminPrincipal(), buyFor("client-1", date(2024, time.January, 1), 1000), interfaces.CreateOptions{})
	require.NoError(t, err)

	desc := "nope"
	_, err = svc.Update(ctx, clientPrincipal("child-1"), created.Created.ID, interfaces.UpdateInput{Description: &desc})

	var authz *models.AuthorizationError
	assert.ErrorAs(t, err, &authz)
}

func TestDeleteDraft(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, adminPrincipal(), buyFor("client-1", date(2024, time.January, 1), 1000), interfaces.CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, adminPrincipal(), created.Created.ID))

	_, err = svc.storage.Transactions().GetByID(ctx, created.Created.ID)
	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDeletePostedRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := buyFor("client-1", date(2024, time.January, 1), 1000)
	input.EntryStatus = models.StatusPosted
	created, err := svc.Create(ctx, adminPrincipal(), input, interfaces.CreateOptions{})
	require.NoError(t, err)

	err = svc.Delete(ctx, adminPrincipal(), created.Created.ID)
	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)

	// The row is untouched.
	fetched, err := svc.storage.Transactions().GetByID(ctx, created.Created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPosted, fetched.EntryStatus)
}

func TestListScoping(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := adminPrincipal()
	day := date(2024, time.January, 1)

	for _, profile := range []string{"client-1", "child-1", "child-1"} {
		_, err := svc.Create(ctx, admin, buyFor(profile, day, 100), interfaces.CreateOptions{})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, admin, models.ListFilters{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Pagination.Total)

	own, err := svc.List(ctx, clientPrincipal("client-1"), models.ListFilters{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, own.Pagination.Total)
	assert.Equal(t, "client-1", own.Rows[0].ClientProfileID)
}

func TestListPaginationAndSort(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := adminPrincipal()

	for i := 0; i < 5; i++ {
		day := date(2024, time.January, 1+i)
		_, err := svc.Create(ctx, admin, buyFor("client-1", day, 100), interfaces.CreateOptions{})
		require.NoError(t, err)
	}

	page1, err := svc.List(ctx, admin, models.ListFilters{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page1.Pagination.Total)
	assert.Equal(t, 3, page1.Pagination.TotalPages)
	require.Len(t, page1.Rows, 2)
	// Newest first.
	assert.Equal(t, date(2024, time.January, 5), page1.Rows[0].TransactionDate)
	assert.Equal(t, date(2024, time.January, 4), page1.Rows[1].TransactionDate)

	page3, err := svc.List(ctx, admin, models.ListFilters{}, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3.Rows, 1)
	assert.Equal(t, date(2024, time.January, 1), page3.Rows[0].TransactionDate)
}

func TestListLimitClamped(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.List(context.Background(), adminPrincipal(), models.ListFilters{}, 0, 9999)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pagination.Page)
	assert.Equal(t, 500, result.Pagination.Limit)
}

func TestListDateRangeInclusive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := adminPrincipal()

	for _, day := range []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 15),
		date(2024, time.February, 1),
	} {
		_, err := svc.Create(ctx, admin, buyFor("client-1", day, 100), interfaces.CreateOptions{})
		require.NoError(t, err)
	}

	start := date(2024, time.January, 15)
	end := date(2024, time.January, 15)
	result, err := svc.List(ctx, admin, models.ListFilters{StartDate: &start, EndDate: &end}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pagination.Total)
}

func TestCashBalanceScoped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := adminPrincipal()
	day := date(2024, time.January, 1)

	deposit := &models.Transaction{
		TransactionDate: day,
		Type:            models.TxTransferIn,
		Amount:          decPtr(1000),
		MasterAccountID: strPtr("ma-1"),
		ClientProfileID: "client-1",
	}
	_, err := svc.Create(ctx, admin, deposit, interfaces.CreateOptions{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, buyFor("client-1", day, 400), interfaces.CreateOptions{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, buyFor("child-1", day, 9999), interfaces.CreateOptions{})
	require.NoError(t, err)

	balance, err := svc.CashBalance(ctx, clientPrincipal("client-1"), models.ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, "600", balance.String())
}
