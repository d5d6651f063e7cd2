package impl

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"signup/internal/domain/entity"
	domainerrors "signup/internal/domain/errors"
	"signup/internal/domain/policy"
	"signup/internal/domain/repository"
	"signup/internal/domain/service"
	"signup/internal/infra/persistence/memory"
	mockRepo "signup/internal/mocks/repository"
	mockSvc "signup/internal/mocks/service"
	"signup/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	validLogin    = "alice_01"
	validPassword = "Str0ng!Pass"
	testHash      = "$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5a2V5a2V5"
)

type spyMetrics struct {
	mu       sync.Mutex
	outcomes []string
	hashes   int
}

func (m *spyMetrics) RecordRegistration(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *spyMetrics) ObserveHashDuration(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes++
}

// registrationFixtures holds all test dependencies for registration service tests.
type registrationFixtures struct {
	service     usecase.RegistrationUsecase
	txManager   *mockRepo.MockTransactionManager
	accountRepo *mockRepo.MockAccountRepository
	txRepo      *mockRepo.MockAccountRepository
	hasher      *mockSvc.MockPasswordHasher
	metrics     *spyMetrics
	logs        *bytes.Buffer
}

func createTestRegistrationService(t *testing.T) registrationFixtures {
	logs := &bytes.Buffer{}
	f := registrationFixtures{
		txManager:   mockRepo.NewMockTransactionManager(t),
		accountRepo: mockRepo.NewMockAccountRepository(t),
		txRepo:      mockRepo.NewMockAccountRepository(t),
		hasher:      mockSvc.NewMockPasswordHasher(t),
		metrics:     &spyMetrics{},
		logs:        logs,
	}

	f.service = NewRegistrationService(RegistrationServiceParams{
		TxManager:   f.txManager,
		AccountRepo: f.accountRepo,
		Hasher:      f.hasher,
		Metrics:     f.metrics,
		Logger:      slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})

	return f
}

// expectTransaction runs the callback against a factory handing out txRepo.
func (f registrationFixtures) expectTransaction(t *testing.T) {
	f.txManager.EXPECT().
		Execute(mock.Anything, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(_ context.Context, fn func(repository.RepositoryFactory) error) error {
			factory := mockRepo.NewMockRepositoryFactory(t)
			factory.EXPECT().AccountRepo().Return(f.txRepo)

			return fn(factory)
		})
}

func TestRegistrationService_Register_Success(t *testing.T) {
	f := createTestRegistrationService(t)
	ctx := context.Background()
	account := &entity.Account{ID: uuid.Must(uuid.NewV7()), Login: validLogin, PasswordHash: testHash, CreatedAt: time.Now()}

	f.accountRepo.EXPECT().FindByLogin(ctx, validLogin).Return(nil, repository.ErrAccountNotFound)
	f.hasher.EXPECT().Hash(ctx, validPassword).Return(testHash, nil)
	f.expectTransaction(t)
	f.txRepo.EXPECT().Create(ctx, validLogin, testHash).Return(account, nil)

	output, err := f.service.Register(ctx, &usecase.RegisterInput{Login: validLogin, Password: validPassword})

	require.NoError(t, err)
	assert.Equal(t, account, output.Account)
	assert.Equal(t, []string{service.OutcomeCreated}, f.metrics.outcomes)
	assert.Equal(t, 1, f.metrics.hashes)
	assert.NotContains(t, f.logs.String(), validPassword)
	assert.NotContains(t, f.logs.String(), testHash)
}

func TestRegistrationService_Register_PolicyViolations(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		password string
		kind     error
		rules    []string
	}{
		{
			name:     "short login",
			login:    "ab",
			password: validPassword,
			kind:     domainerrors.ErrInvalidLogin,
			rules:    []string{policy.RuleLoginLength},
		},
		{
			name:     "login with space",
			login:    "alice smith",
			password: validPassword,
			kind:     domainerrors.ErrInvalidLogin,
			rules:    []string{policy.RuleLoginCharset},
		},
		{
			name:     "weak password",
			login:    validLogin,
			password: "weak",
			kind:     domainerrors.ErrWeakPassword,
			rules: []string{
				policy.RulePasswordLength,
				policy.RulePasswordUppercase,
				policy.RulePasswordDigit,
				policy.RulePasswordSpecial,
			},
		},
		{
			name:     "missing special character",
			login:    validLogin,
			password: "Password123",
			kind:     domainerrors.ErrWeakPassword,
			rules:    []string{policy.RulePasswordSpecial},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No repository, hasher or transaction expectations: nothing past validation may run.
			f := createTestRegistrationService(t)

			output, err := f.service.Register(context.Background(), &usecase.RegisterInput{Login: tt.login, Password: tt.password})

			assert.Nil(t, output)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)

			var verr *domainerrors.ValidationError
			require.True(t, errors.As(err, &verr))
			rules := make([]string, 0, len(verr.Violations()))
			for _, v := range verr.Violations() {
				rules = append(rules, v.Rule)
			}
			assert.Equal(t, tt.rules, rules)
			assert.Equal(t, []string{service.OutcomeInvalid}, f.metrics.outcomes)
			assert.NotContains(t, f.logs.String(), tt.password)
		})
	}
}

func TestRegistrationService_Register_PrecheckConflict(t *testing.T) {
	f := createTestRegistrationService(t)
	ctx := context.Background()

	f.accountRepo.EXPECT().FindByLogin(ctx, validLogin).Return(&entity.Account{Login: validLogin}, nil)

	output, err := f.service.Register(ctx, &usecase.RegisterInput{Login: validLogin, Password: validPassword})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrLoginAlreadyExists))
	assert.Equal(t, []string{service.OutcomeConflict}, f.metrics.outcomes)
	assert.Zero(t, f.metrics.hashes)
}

func TestRegistrationService_Register_InsertConflict(t *testing.T) {
	f := createTestRegistrationService(t)
	ctx := context.Background()

	f.accountRepo.EXPECT().FindByLogin(ctx, validLogin).Return(nil, repository.ErrAccountNotFound)
	f.hasher.EXPECT().Hash(ctx, validPassword).Return(testHash, nil)
	f.expectTransaction(t)
	f.txRepo.EXPECT().Create(ctx, validLogin, testHash).
		Return(nil, domainerrors.ErrLoginAlreadyExists.WrapMessage("insert account"))

	output, err := f.service.Register(ctx, &usecase.RegisterInput{Login: validLogin, Password: validPassword})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrLoginAlreadyExists))
	assert.Equal(t, []string{service.OutcomeConflict}, f.metrics.outcomes)
}

func TestRegistrationService_Register_PrecheckFailureIsIgnored(t *testing.T) {
	f := createTestRegistrationService(t)
	ctx := context.Background()
	account := &entity.Account{ID: uuid.Must(uuid.NewV7()), Login: validLogin}

	f.accountRepo.EXPECT().FindByLogin(ctx, validLogin).
		Return(nil, domainerrors.NewDatabaseExecuteError(errors.New("replica down"), "failed to find account by login"))
	f.hasher.EXPECT().Hash(ctx, validPassword).Return(testHash, nil)
	f.expectTransaction(t)
	f.txRepo.EXPECT().Create(ctx, validLogin, testHash).Return(account, nil)

	output, err := f.service.Register(ctx, &usecase.RegisterInput{Login: validLogin, Password: validPassword})

	require.NoError(t, err)
	assert.Equal(t, account.ID, output.Account.ID)
	assert.Contains(t, f.logs.String(), "Login pre-check failed")
}

func TestRegistrationService_Register_HashingUnavailable(t *testing.T) {
	f := createTestRegistrationService(t)
	ctx := context.Background()

	f.accountRepo.EXPECT().FindByLogin(ctx, validLogin).Return(nil, repository.ErrAccountNotFound)
	f.hasher.EXPECT().Hash(ctx, validPassword).
		Return("", domainerrors.ErrHashingUnavailable.Wrap(context.DeadlineExceeded))

	output, err := f.service.Register(ctx, &usecase.RegisterInput{Login: validLogin, Password: validPassword})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrHashingUnavailable))
	assert.Equal(t, []string{service.OutcomeError}, f.metrics.outcomes)
}

func TestRegistrationService_Register_RepositoryUnavailable(t *testing.T) {
	f := createTestRegistrationService(t)
	ctx := context.Background()

	f.accountRepo.EXPECT().FindByLogin(ctx, validLogin).Return(nil, repository.ErrAccountNotFound)
	f.hasher.EXPECT().Hash(ctx, validPassword).Return(testHash, nil)
	f.txManager.EXPECT().
		Execute(mock.Anything, mock.Anything).
		Return(domainerrors.NewDatabaseExecuteError(errors.New("connection refused"), "failed to begin transaction"))

	output, err := f.service.Register(ctx, &usecase.RegisterInput{Login: validLogin, Password: validPassword})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrRepositoryUnavailable))
	assert.Equal(t, []string{service.OutcomeError}, f.metrics.outcomes)
}

func TestRegistrationService_Register_ConcurrentSameLogin(t *testing.T) {
	const workers = 32

	store := memory.NewStore()
	srv := NewRegistrationService(RegistrationServiceParams{
		TxManager:   memory.NewTransactionManager(store),
		AccountRepo: memory.NewAccountRepository(store),
		Hasher:      staticHasher{},
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := srv.Register(context.Background(), &usecase.RegisterInput{Login: validLogin, Password: validPassword})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domainerrors.ErrLoginAlreadyExists):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, store.Len())
}

// staticHasher returns a fixed hash so concurrency tests stay fast.
type staticHasher struct{}

func (staticHasher) Hash(context.Context, string) (string, error) { return testHash, nil }
func (staticHasher) Verify(string, string) (bool, error)          { return false, nil }
func (staticHasher) NeedsRehash(string) bool                      { return false }
