// Package memory is a process-local account store for development and tests.
// It has the same conflict semantics as the PostgreSQL adapter within one process.
package memory

import (
	"context"
	"sync"
	"time"

	"signup/internal/domain/entity"
	domainerrors "signup/internal/domain/errors"
	"signup/internal/domain/repository"

	"github.com/google/uuid"
)

// Store holds the committed accounts. All writes are serialised by mu.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]entity.Account
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]entity.Account),
		now:      time.Now,
	}
}

// Len returns the number of committed accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.accounts)
}

// NewAccountRepository returns a repository that commits each Create on its own.
func NewAccountRepository(store *Store) repository.AccountRepository {
	return &accountRepository{store: store}
}

// NewTransactionManager returns a manager whose transactions hold the store's write lock.
func NewTransactionManager(store *Store) repository.TransactionManager {
	return &transactionManager{store: store}
}

type accountRepository struct {
	store *Store
}

func (r *accountRepository) Create(ctx context.Context, login, passwordHash string) (*entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to create account")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx := newTx(r.store)
	account, err := tx.Create(ctx, login, passwordHash)
	if err != nil {
		return nil, err
	}
	tx.commit()

	return account, nil
}

func (r *accountRepository) FindByLogin(ctx context.Context, login string) (*entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find account by login")
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	account, ok := r.store.accounts[login]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return &account, nil
}

type transactionManager struct {
	store *Store
}

// Execute stages writes made through the factory and publishes them only when fn returns nil.
func (tm *transactionManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to begin transaction")
	}

	tm.store.mu.Lock()
	defer tm.store.mu.Unlock()

	tx := newTx(tm.store)
	if err := fn(tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to commit transaction")
	}
	tx.commit()

	return nil
}

// tx is a write set over the committed accounts. The caller holds store.mu.
type tx struct {
	store   *Store
	pending map[string]entity.Account
}

func newTx(store *Store) *tx {
	return &tx{store: store, pending: make(map[string]entity.Account)}
}

func (t *tx) AccountRepo() repository.AccountRepository {
	return t
}

func (t *tx) Create(ctx context.Context, login, passwordHash string) (*entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to create account")
	}

	if _, ok := t.lookup(login); ok {
		return nil, domainerrors.ErrLoginAlreadyExists.WrapMessage("insert account")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to generate account id")
	}

	account := entity.Account{
		ID:           id,
		Login:        login,
		PasswordHash: passwordHash,
		CreatedAt:    t.store.now().UTC(),
	}
	t.pending[login] = account

	return &account, nil
}

func (t *tx) FindByLogin(_ context.Context, login string) (*entity.Account, error) {
	account, ok := t.lookup(login)
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return &account, nil
}

func (t *tx) lookup(login string) (entity.Account, bool) {
	if account, ok := t.pending[login]; ok {
		return account, true
	}
	account, ok := t.store.accounts[login]

	return account, ok
}

func (t *tx) commit() {
	for login, account := range t.pending {
		t.store.accounts[login] = account
	}
}
