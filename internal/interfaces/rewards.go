package interfaces

import (
	"context"

	model "github.com/fabioluiz1/thanx-take-home/internal/models"
	"github.com/google/uuid"
)

//go:generate mockgen -destination=./../services/mock_storage_test.go -package=services . RewardsStorage,RedeemTx,CacheStorage

// RewardsStorage is the durable catalog and ledger store. WithinTx runs fn
// inside one transaction; fn returning an error rolls everything back.
type RewardsStorage interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx RedeemTx) error) error
	GetUser(ctx context.Context, userID uuid.UUID) (model.User, error)
	GetFirstUser(ctx context.Context) (model.User, error)
	ListAvailableRewards(ctx context.Context, limit int, offset int) ([]model.Reward, error)
	ListRedemptionsForUser(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error)
}

// RedeemTx is the slice of the store visible inside a redemption
// transaction. GetUserForUpdate holds an exclusive row lock until the
// transaction ends.
type RedeemTx interface {
	GetUserForUpdate(ctx context.Context, userID uuid.UUID) (model.User, error)
	GetReward(ctx context.Context, rewardID uuid.UUID) (model.Reward, error)
	UpdateUserBalance(ctx context.Context, userID uuid.UUID, balance int) error
	InsertRedemption(ctx context.Context, redemption model.Redemption) (uuid.UUID, error)
}

// CacheStorage holds user profiles so balance polls skip the database.
// A redemption invalidates the entry before anyone can observe a stale
// balance.
type CacheStorage interface {
	GetUser(ctx context.Context, userID uuid.UUID) (model.User, error)
	SetUser(ctx context.Context, user model.User) error
	InvalidateUser(ctx context.Context, userID uuid.UUID) error
}
