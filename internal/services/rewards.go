package services

import (
	"context"
	"time"

	interf "github.com/fabioluiz1/thanx-take-home/internal/interfaces"
	model "github.com/fabioluiz1/thanx-take-home/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RewardsService runs the redemption transaction and the catalog/history
// reads over storage. Stateless between calls; all locking lives inside
// one Redeem transaction.
type RewardsService struct {
	logger *zap.Logger
	db     interf.RewardsStorage
	cache  interf.CacheStorage
}

func NewRewardsService(logger *zap.Logger, db interf.RewardsStorage, cache interf.CacheStorage) *RewardsService {
	return &RewardsService{logger, db, cache}
}

// Redeem atomically checks that the user and reward exist, the reward is
// available and the balance covers the cost, then debits the balance and
// records the redemption. The user row is locked for the whole
// transaction: of two concurrent calls for the same user, the second
// observes the first's committed debit before its own balance check, so
// the balance can never go negative. Any failure rolls back both
// mutations.
func (s *RewardsService) Redeem(ctx context.Context, userID uuid.UUID, rewardID uuid.UUID) (redemption model.Redemption, err error) {
	err = s.db.WithinTx(ctx, func(ctx context.Context, tx interf.RedeemTx) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		reward, err := tx.GetReward(ctx, rewardID)
		if err != nil {
			return err
		}
		if !reward.Available {
			return model.ErrRewardUnavailable
		}
		if user.PointsBalance < reward.PointsCost {
			return model.ErrInsufficientPoints
		}

		err = tx.UpdateUserBalance(ctx, userID, user.PointsBalance-reward.PointsCost)
		if err != nil {
			return err
		}

		redemption = model.Redemption{
			UserID:      userID,
			RewardID:    rewardID,
			PointsSpent: reward.PointsCost,
			RedeemedAt:  time.Now().UTC(),
		}
		id, err := tx.InsertRedemption(ctx, redemption)
		if err != nil {
			return err
		}
		redemption.ID = id
		redemption.Reward = &reward
		return nil
	})
	if err != nil {
		return model.Redemption{}, err
	}

	// the committed debit makes the cached profile stale
	if s.cache != nil {
		if cerr := s.cache.InvalidateUser(ctx, userID); cerr != nil {
			s.logger.Error("cache invalidate", zap.Error(cerr), zap.String("user", userID.String()))
		}
	}
	return redemption, nil
}

// GetUser returns the user profile, cache first.
func (s *RewardsService) GetUser(ctx context.Context, userID uuid.UUID) (user model.User, err error) {
	if s.cache != nil {
		user, err = s.cache.GetUser(ctx, userID)
		if err == nil {
			return user, nil
		}
	}
	user, err = s.db.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	if s.cache != nil {
		_ = s.cache.SetUser(ctx, user)
	}
	return user, nil
}

// ListAvailableRewards returns available rewards ascending by cost.
// Limit and offset arrive already clamped by the API layer.
func (s *RewardsService) ListAvailableRewards(ctx context.Context, limit int, offset int) ([]model.Reward, error) {
	return s.db.ListAvailableRewards(ctx, limit, offset)
}

// ListRedemptions returns the user's redemption history, newest first,
// each entry carrying its reward.
func (s *RewardsService) ListRedemptions(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error) {
	return s.db.ListRedemptionsForUser(ctx, userID)
}

func (s *RewardsService) Log(err error) {
	s.logger.Error(err.Error())
}
