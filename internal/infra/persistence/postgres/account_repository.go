package postgres

import (
	"context"

	"signup/internal/domain/entity"
	domainerrors "signup/internal/domain/errors"
	"signup/internal/domain/repository"
	"signup/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	insertAccountSQL = `INSERT INTO users (id, login, password_hash)
VALUES (?, ?, ?)
RETURNING id, login, password_hash, created_at`

	selectAccountByLoginSQL = `SELECT id, login, password_hash, created_at
FROM users
WHERE login = ?
LIMIT 1`
)

// accountRepository implements repository.AccountRepository with explicit SQL.
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository is the constructor for accountRepository.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts the account in one statement. The unique constraint on login
// decides between concurrent creators; the loser gets ErrLoginAlreadyExists.
func (repo *accountRepository) Create(ctx context.Context, login, passwordHash string) (*entity.Account, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to generate account id")
	}

	var row model.AccountModel
	if err := repo.db.WithContext(ctx).Raw(insertAccountSQL, id, login, passwordHash).Scan(&row).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return nil, domainerrors.ErrLoginAlreadyExists.WrapMessage("insert account")
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to create account")
	}

	return toAccountDomain(&row), nil
}

// FindByLogin performs an exact, case-sensitive lookup.
func (repo *accountRepository) FindByLogin(ctx context.Context, login string) (*entity.Account, error) {
	var row model.AccountModel
	result := repo.db.WithContext(ctx).Raw(selectAccountByLoginSQL, login).Scan(&row)
	if result.Error != nil {
		return nil, domainerrors.NewDatabaseExecuteError(result.Error, "failed to find account by login")
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrAccountNotFound
	}

	return toAccountDomain(&row), nil
}

func toAccountDomain(data *model.AccountModel) *entity.Account {
	if data == nil {
		return nil
	}

	return &entity.Account{
		ID:           data.ID,
		Login:        data.Login,
		PasswordHash: data.PasswordHash,
		CreatedAt:    data.CreatedAt,
	}
}
