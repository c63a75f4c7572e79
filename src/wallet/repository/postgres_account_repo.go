package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lakkhi/walletd/src/logger"
	"github.com/lakkhi/walletd/src/wallet/domain"
)

var _ domain.AccountRepository = (*AccountRepo)(nil)

// AuthorizedAccount is the single-row auto-reconnect hint. One walletd
// instance serves one browser profile, so the table holds at most one
// live row.
type AuthorizedAccount struct {
	gorm.Model
	Address string `gorm:"not null;uniqueIndex"`
	ChainID uint64 `gorm:"not null;default:0"`
}

type AccountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, log *logger.Logger) *AccountRepo {
	if err := db.AutoMigrate(&AuthorizedAccount{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	return &AccountRepo{db: db, log: log}
}

func (r *AccountRepo) SaveAuthorized(ctx context.Context, acct domain.AuthorizedAccount) error {
	model := AuthorizedAccount{
		Address: acct.Address,
		ChainID: acct.ChainID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"chain_id", "updated_at"}),
		}).
		Create(&model).Error
}

func (r *AccountRepo) LastAuthorized(ctx context.Context) (*domain.AuthorizedAccount, error) {
	var m AuthorizedAccount
	if err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.AuthorizedAccount{Address: m.Address, ChainID: m.ChainID}, nil
}

func (r *AccountRepo) ClearAuthorized(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&AuthorizedAccount{}).Error
}
