package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"gorm.io/gorm"
)

// CredentialRepository stores login material for the auth handlers.
type CredentialRepository interface {
	Create(ctx context.Context, cred *models.Credential) error
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*models.Credential, error)
	SetFirebaseUID(ctx context.Context, accountID, uid string) error
}

// PostgresCredentialRepository implements CredentialRepository for PostgreSQL
type PostgresCredentialRepository struct {
	db *gorm.DB
}

// NewPostgresCredentialRepository creates a new PostgresCredentialRepository
func NewPostgresCredentialRepository(db *gorm.DB) *PostgresCredentialRepository {
	return &PostgresCredentialRepository{db: db}
}

func (r *PostgresCredentialRepository) Create(ctx context.Context, cred *models.Credential) error {
	cred.CreatedAt = stamp(cred.CreatedAt)
	return translate(ctx, "credentials.create", r.db.WithContext(ctx).Create(cred).Error)
}

func (r *PostgresCredentialRepository) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var cred models.Credential
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("credentials.get_by_email", "credential", email)
		}
		return nil, translate(ctx, "credentials.get_by_email", err)
	}
	return &cred, nil
}

func (r *PostgresCredentialRepository) GetByFirebaseUID(ctx context.Context, uid string) (*models.Credential, error) {
	var cred models.Credential
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", uid).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("credentials.get_by_firebase_uid", "credential", uid)
		}
		return nil, translate(ctx, "credentials.get_by_firebase_uid", err)
	}
	return &cred, nil
}

func (r *PostgresCredentialRepository) SetFirebaseUID(ctx context.Context, accountID, uid string) error {
	res := r.db.WithContext(ctx).Model(&models.Credential{}).Where("account_id = ?", accountID).Update("firebase_uid", uid)
	if res.Error != nil {
		return translate(ctx, "credentials.set_firebase_uid", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("credentials.set_firebase_uid", "credential", accountID)
	}
	return nil
}
