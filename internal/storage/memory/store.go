// Package memory provides a map-backed StorageManager for tests and local
// development. It honors the same filter and transaction-scope contract as the
// Postgres repository.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meridianwealth/ledger/internal/common"
	"github.com/meridianwealth/ledger/internal/interfaces"
	"github.com/meridianwealth/ledger/internal/models"
)

// Compile-time interface check
var _ interfaces.StorageManager = (*Manager)(nil)

// Manager implements interfaces.StorageManager over in-process maps.
type Manager struct {
	mu   sync.RWMutex
	txMu sync.Mutex // serializes WithinTransaction scopes

	logger       *common.Logger
	transactions map[string]*models.Transaction
	order        map[string]int // insertion order, for the secondary sort key
	nextOrder    int
	profiles     map[string]*models.ClientProfile

	txStore      *TransactionStore
	profileStore *ProfileStore
}

// NewManager creates an empty in-memory storage manager.
func NewManager(logger *common.Logger) *Manager {
	m := &Manager{
		logger:       logger,
		transactions: make(map[string]*models.Transaction),
		order:        make(map[string]int),
		profiles:     make(map[string]*models.ClientProfile),
	}
	m.txStore = &TransactionStore{m: m}
	m.profileStore = &ProfileStore{m: m}
	return m
}

func (m *Manager) Transactions() interfaces.TransactionStore {
	return m.txStore
}

func (m *Manager) Profiles() interfaces.ProfileStore {
	return m.profileStore
}

// WithinTransaction snapshots state, runs fn, and restores the snapshot when
// fn returns an error. Individual store-call failures inside fn leave their
// own row untouched and do not poison the scope, matching the savepoint
// semantics of the Postgres backend. Scopes are serialized.
func (m *Manager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, txStore interfaces.TransactionStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := make(map[string]*models.Transaction, len(m.transactions))
	for id, tx := range m.transactions {
		snapshot[id] = tx.Clone()
	}
	orderSnapshot := make(map[string]int, len(m.order))
	for id, n := range m.order {
		orderSnapshot[id] = n
	}
	nextOrder := m.nextOrder
	m.mu.Unlock()

	if err := fn(ctx, m.txStore); err != nil {
		m.mu.Lock()
		m.transactions = snapshot
		m.order = orderSnapshot
		m.nextOrder = nextOrder
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Manager) Close() error {
	return nil
}

// PutProfile seeds a client profile. Test and dev-bootstrap helper; the
// service layer only ever reads profiles.
func (m *Manager) PutProfile(p *models.ClientProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.ID] = &cp
}

// profileOrg resolves the organization id of a profile, or empty when unknown.
// Caller must hold at least a read lock.
func (m *Manager) profileOrg(profileID string) string {
	if p, ok := m.profiles[profileID]; ok {
		return p.OrganizationID
	}
	return ""
}

// matches applies the composed filter, scope included, to one row.
// Caller must hold at least a read lock.
func (m *Manager) matches(tx *models.Transaction, f models.TransactionFilter) bool {
	if !f.Scope.AllowsProfile(tx.ClientProfileID, m.profileOrg(tx.ClientProfileID)) {
		return false
	}
	if len(f.IDs) > 0 {
		found := false
		for _, id := range f.IDs {
			if tx.ID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MasterAccountID != nil && (tx.MasterAccountID == nil || *tx.MasterAccountID != *f.MasterAccountID) {
		return false
	}
	if f.ClientAccountID != nil && (tx.ClientAccountID == nil || *tx.ClientAccountID != *f.ClientAccountID) {
		return false
	}
	if f.StartDate != nil && tx.TransactionDate.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && tx.TransactionDate.After(*f.EndDate) {
		return false
	}
	if f.Type != nil && tx.Type != *f.Type {
		return false
	}
	if f.Status != nil && tx.EntryStatus != *f.Status {
		return false
	}
	if f.SecurityID != nil && (tx.SecurityID == nil || *tx.SecurityID != *f.SecurityID) {
		return false
	}
	return true
}

// TransactionStore implements interfaces.TransactionStore over the manager maps.
type TransactionStore struct {
	m *Manager
}

func (s *TransactionStore) Create(_ context.Context, tx *models.Transaction) (*models.Transaction, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, exists := s.m.transactions[tx.ID]; exists {
		return nil, &models.ConflictError{Reason: "transaction id " + tx.ID + " already exists"}
	}
	stored := tx.Clone()
	s.m.transactions[tx.ID] = stored
	s.m.order[tx.ID] = s.m.nextOrder
	s.m.nextOrder++
	return stored.Clone(), nil
}

func (s *TransactionStore) GetByID(_ context.Context, id string) (*models.Transaction, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	tx, ok := s.m.transactions[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "transaction", ID: id}
	}
	return tx.Clone(), nil
}

func (s *TransactionStore) Update(_ context.Context, tx *models.Transaction) (*models.Transaction, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.transactions[tx.ID]; !ok {
		return nil, &models.NotFoundError{Entity: "transaction", ID: tx.ID}
	}
	stored := tx.Clone()
	s.m.transactions[tx.ID] = stored
	return stored.Clone(), nil
}

func (s *TransactionStore) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.transactions[id]; !ok {
		return &models.NotFoundError{Entity: "transaction", ID: id}
	}
	delete(s.m.transactions, id)
	delete(s.m.order, id)
	return nil
}

func (s *TransactionStore) Find(_ context.Context, filter models.TransactionFilter, opts interfaces.FindOptions) ([]*models.Transaction, int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var rows []*models.Transaction
	for _, tx := range s.m.transactions {
		if s.m.matches(tx, filter) {
			rows = append(rows, tx)
		}
	}

	// transaction date descending, then insertion order descending
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].TransactionDate.Equal(rows[j].TransactionDate) {
			return rows[i].TransactionDate.After(rows[j].TransactionDate)
		}
		return s.m.order[rows[i].ID] > s.m.order[rows[j].ID]
	})

	total := len(rows)

	if opts.Limit > 0 {
		page := opts.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * opts.Limit
		if start >= total {
			rows = nil
		} else {
			end := start + opts.Limit
			if end > total {
				end = total
			}
			rows = rows[start:end]
		}
	}

	out := make([]*models.Transaction, len(rows))
	for i, tx := range rows {
		out[i] = tx.Clone()
	}
	return out, total, nil
}

func (s *TransactionStore) FindByNaturalKey(_ context.Context, key models.NaturalKey) (*models.Transaction, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, tx := range s.m.transactions {
		if !sameRef(tx.MasterAccountID, key.MasterAccountID) || !sameRef(tx.ClientAccountID, key.ClientAccountID) {
			continue
		}
		if !tx.TransactionDate.Equal(key.TransactionDate) || tx.Type != key.Type {
			continue
		}
		if !sameRef(tx.SecurityID, key.SecurityID) {
			continue
		}
		if tx.Amount == nil || !tx.Amount.Equal(key.Amount) {
			continue
		}
		return tx.Clone(), nil
	}
	return nil, &models.NotFoundError{Entity: "transaction", ID: "natural key"}
}

func (s *TransactionStore) UpdateStatus(_ context.Context, filter models.TransactionFilter, status models.EntryStatus) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	count := 0
	now := time.Now()
	for _, tx := range s.m.transactions {
		if s.m.matches(tx, filter) {
			tx.EntryStatus = status
			tx.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func (s *TransactionStore) DeleteMatching(_ context.Context, filter models.TransactionFilter) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	count := 0
	for id, tx := range s.m.transactions {
		if s.m.matches(tx, filter) {
			delete(s.m.transactions, id)
			delete(s.m.order, id)
			count++
		}
	}
	return count, nil
}

// sameRef compares two optional string references: both nil/empty, or equal.
func sameRef(a, b *string) bool {
	av, bv := "", ""
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// ProfileStore implements interfaces.ProfileStore over the manager maps.
type ProfileStore struct {
	m *Manager
}

func (s *ProfileStore) Get(_ context.Context, id string) (*models.ClientProfile, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	p, ok := s.m.profiles[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "client profile", ID: id}
	}
	cp := *p
	return &cp, nil
}

func (s *ProfileStore) ListChildren(_ context.Context, parentID string) ([]*models.ClientProfile, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var children []*models.ClientProfile
	for _, p := range s.m.profiles {
		if p.ParentClientID == parentID {
			cp := *p
			children = append(children, &cp)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children, nil
}
