package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	domainerrors "signup/internal/domain/errors"
	"signup/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CreateAndFind(t *testing.T) {
	store := NewStore()
	repo := NewAccountRepository(store)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "hash")
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), created.ID.Version())
	assert.Equal(t, "alice", created.Login)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := repo.FindByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByLogin(ctx, "Alice")
	assert.True(t, errors.Is(err, repository.ErrAccountNotFound))
}

func TestAccountRepository_DuplicateLogin(t *testing.T) {
	store := NewStore()
	repo := NewAccountRepository(store)
	ctx := context.Background()

	_, err := repo.Create(ctx, "bob", "hash")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "bob", "other")
	assert.True(t, errors.Is(err, domainerrors.ErrLoginAlreadyExists))

	_, err = repo.Create(ctx, "Bob", "other")
	assert.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestAccountRepository_ConcurrentSameLogin(t *testing.T) {
	const workers = 64
	store := NewStore()
	txManager := NewTransactionManager(store)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		created   atomic.Int32
		conflicts atomic.Int32
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
				_, err := f.AccountRepo().Create(ctx, "carol", "hash")

				return err
			})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, domainerrors.ErrLoginAlreadyExists):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())
	assert.Equal(t, 1, store.Len())
}

func TestTransactionManager_Rollback(t *testing.T) {
	store := NewStore()
	txManager := NewTransactionManager(store)
	ctx := context.Background()
	sentinel := errors.New("abort")

	err := txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
		_, err := f.AccountRepo().Create(ctx, "dave", "hash")
		require.NoError(t, err)

		// Visible inside the transaction.
		_, err = f.AccountRepo().FindByLogin(ctx, "dave")
		require.NoError(t, err)

		return sentinel
	})
	assert.True(t, errors.Is(err, sentinel))
	assert.Zero(t, store.Len())
}

func TestTransactionManager_PanicReleasesLock(t *testing.T) {
	store := NewStore()
	txManager := NewTransactionManager(store)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
			_, _ = f.AccountRepo().Create(ctx, "erin", "hash")
			panic("boom")
		})
	})

	_, err := NewAccountRepository(store).Create(ctx, "erin", "hash")
	assert.NoError(t, err)
}

func TestTransactionManager_CanceledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewTransactionManager(store).Execute(ctx, func(repository.RepositoryFactory) error {
		t.Fatal("fn must not run")

		return nil
	})
	assert.True(t, errors.Is(err, domainerrors.ErrRepositoryUnavailable))
	assert.True(t, errors.Is(err, context.Canceled))
}
