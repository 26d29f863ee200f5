package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/validators"
	"gorm.io/gorm"
)

// AccountRepository defines the interface for account data operations
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByHandle(ctx context.Context, handle string) (*models.Account, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}

// PostgresAccountRepository implements AccountRepository for PostgreSQL
type PostgresAccountRepository struct {
	db *gorm.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository
func NewPostgresAccountRepository(db *gorm.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// Create inserts an account. A taken handle fails with apperr.ErrConflict.
func (r *PostgresAccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = NewID()
	}
	account.HandleKey = validators.HandleKey(account.Handle)
	account.CreatedAt = stamp(account.CreatedAt)
	return translate(ctx, "accounts.create", r.db.WithContext(ctx).Create(account).Error)
}

// GetByID retrieves an account by id
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("accounts.get", "account", id)
		}
		return nil, translate(ctx, "accounts.get", err)
	}
	return &account, nil
}

// GetByHandle retrieves an account by handle, ignoring case.
func (r *PostgresAccountRepository) GetByHandle(ctx context.Context, handle string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("handle_key = ?", validators.HandleKey(handle)).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("accounts.get_by_handle", "account", handle)
		}
		return nil, translate(ctx, "accounts.get_by_handle", err)
	}
	return &account, nil
}

// GetByIDs loads many accounts in one query. Missing ids are absent from the map.
func (r *PostgresAccountRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.Account, error) {
	out := make(map[string]models.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var accounts []models.Account
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, translate(ctx, "accounts.get_many", err)
	}
	for _, a := range accounts {
		out[a.ID] = a
	}
	return out, nil
}

// Update saves the mutable profile fields of an account.
func (r *PostgresAccountRepository) Update(ctx context.Context, account *models.Account) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"display_name": account.DisplayName,
			"bio":          account.Bio,
			"avatar_url":   account.AvatarURL,
		})
	if res.Error != nil {
		return translate(ctx, "accounts.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("accounts.update", "account", account.ID)
	}
	return nil
}
