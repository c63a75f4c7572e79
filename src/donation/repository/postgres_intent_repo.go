package repository

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lakkhi/walletd/src/donation/domain"
	"github.com/lakkhi/walletd/src/logger"
	pricingdomain "github.com/lakkhi/walletd/src/pricing/domain"
	txdomain "github.com/lakkhi/walletd/src/txflow/domain"
)

var _ domain.IntentRepository = (*IntentRepo)(nil)

// Intent is the donation history row. Amount is stored as a decimal
// string since token base units overflow bigint.
type Intent struct {
	ID          uuid.UUID `gorm:"primarykey"`
	Donor       string    `gorm:"not null;index"`
	Token       string    `gorm:"not null"`
	PoolAddress string    `gorm:"not null"`
	ChainID     uint64    `gorm:"not null"`
	Amount      string    `gorm:"not null"`
	State       string    `gorm:"not null"`
	FailReason  string
	USD         string
	USDSource   string
	ApproveHash string
	StakeHash   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type IntentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIntentRepo(db *gorm.DB, log *logger.Logger) *IntentRepo {
	if err := db.AutoMigrate(&Intent{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	return &IntentRepo{db: db, log: log}
}

func (r *IntentRepo) SaveIntent(ctx context.Context, intent domain.Intent) error {
	model := Intent{
		ID:          intent.ID,
		Donor:       intent.Donor,
		Token:       intent.Token,
		PoolAddress: intent.PoolAddress,
		ChainID:     intent.ChainID,
		State:       string(intent.State),
		FailReason:  intent.FailReason,
		CreatedAt:   intent.CreatedAt,
		UpdatedAt:   intent.UpdatedAt,
	}
	if intent.Amount != nil {
		model.Amount = intent.Amount.String()
	}
	if intent.USDQuote != nil {
		model.USD = intent.USD.String()
		model.USDSource = string(intent.USDQuote.Source)
	}
	if intent.ApproveTx != nil {
		model.ApproveHash = intent.ApproveTx.Hash
	}
	if intent.StakeTx != nil {
		model.StakeHash = intent.StakeTx.Hash
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

func (r *IntentRepo) ListRecent(ctx context.Context, limit int) ([]domain.Intent, error) {
	var models []Intent
	if err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Intent, len(models))
	for i, m := range models {
		out[i] = fromModel(m)
	}
	return out, nil
}

func fromModel(m Intent) domain.Intent {
	intent := domain.Intent{
		ID:          m.ID,
		Donor:       m.Donor,
		Token:       m.Token,
		PoolAddress: m.PoolAddress,
		ChainID:     m.ChainID,
		State:       domain.State(m.State),
		FailReason:  m.FailReason,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if amount, ok := new(big.Int).SetString(m.Amount, 10); ok {
		intent.Amount = amount
	}
	if m.USDSource != "" {
		if usd, err := decimal.NewFromString(m.USD); err == nil {
			intent.USD = usd
		}
		// Only the derived total and its source survive storage.
		intent.USDQuote = &pricingdomain.Quote{Source: pricingdomain.SourceKind(m.USDSource)}
	}
	if m.ApproveHash != "" {
		intent.ApproveTx = &txdomain.PendingTransaction{Hash: m.ApproveHash, Kind: txdomain.KindApprove, ChainID: m.ChainID}
	}
	if m.StakeHash != "" {
		intent.StakeTx = &txdomain.PendingTransaction{Hash: m.StakeHash, Kind: txdomain.KindStake, ChainID: m.ChainID}
	}
	return intent
}
