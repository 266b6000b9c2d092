package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	interf "github.com/fabioluiz1/thanx-take-home/internal/interfaces"
	model "github.com/fabioluiz1/thanx-take-home/internal/models"
	"github.com/google/uuid"
)

// memStore is an in-memory RewardsStorage with real transaction
// semantics: WithinTx serializes on a mutex (the row-lock stand-in),
// stages writes and applies them only when fn succeeds. It backs the
// concurrency and listing tests, where gomock expectations would be
// awkward.
type memStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]model.User
	rewards     map[uuid.UUID]model.Reward
	redemptions []model.Redemption

	failInsert bool // simulate a storage failure mid-transaction
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[uuid.UUID]model.User),
		rewards: make(map[uuid.UUID]model.Reward),
	}
}

func (s *memStore) addUser(email string, balance int) uuid.UUID {
	id := uuid.New()
	s.users[id] = model.User{ID: id, Email: email, PointsBalance: balance}
	return id
}

func (s *memStore) addReward(name string, cost int, available bool) uuid.UUID {
	id := uuid.New()
	s.rewards[id] = model.Reward{ID: id, Name: name, PointsCost: cost, Available: available}
	return id
}

func (s *memStore) balance(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID].PointsBalance
}

func (s *memStore) redemptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redemptions)
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx interf.RedeemTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, staged: make(map[uuid.UUID]model.User)}
	if err := fn(ctx, tx); err != nil {
		return err // staged writes are discarded
	}
	for id, user := range tx.staged {
		s.users[id] = user
	}
	s.redemptions = append(s.redemptions, tx.inserted...)
	return nil
}

func (s *memStore) GetUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (s *memStore) GetFirstUser(ctx context.Context) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		return user, nil
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memStore) ListAvailableRewards(ctx context.Context, limit int, offset int) ([]model.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rewards []model.Reward
	for _, reward := range s.rewards {
		if reward.Available {
			rewards = append(rewards, reward)
		}
	}
	sort.Slice(rewards, func(i, j int) bool { return rewards[i].PointsCost < rewards[j].PointsCost })
	if offset >= len(rewards) {
		return nil, nil
	}
	rewards = rewards[offset:]
	if limit < len(rewards) {
		rewards = rewards[:limit]
	}
	return rewards, nil
}

func (s *memStore) ListRedemptionsForUser(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Redemption
	for _, red := range s.redemptions {
		if red.UserID != userID {
			continue
		}
		reward := s.rewards[red.RewardID]
		red.Reward = &reward
		out = append(out, red)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RedeemedAt.After(out[j].RedeemedAt) })
	return out, nil
}

type memTx struct {
	store    *memStore
	staged   map[uuid.UUID]model.User
	inserted []model.Redemption
}

func (t *memTx) GetUserForUpdate(ctx context.Context, userID uuid.UUID) (model.User, error) {
	if user, ok := t.staged[userID]; ok {
		return user, nil
	}
	user, ok := t.store.users[userID]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (t *memTx) GetReward(ctx context.Context, rewardID uuid.UUID) (model.Reward, error) {
	reward, ok := t.store.rewards[rewardID]
	if !ok {
		return model.Reward{}, model.ErrRewardNotFound
	}
	return reward, nil
}

func (t *memTx) UpdateUserBalance(ctx context.Context, userID uuid.UUID, balance int) error {
	user, err := t.GetUserForUpdate(ctx, userID)
	if err != nil {
		return err
	}
	user.PointsBalance = balance
	t.staged[userID] = user
	return nil
}

func (t *memTx) InsertRedemption(ctx context.Context, redemption model.Redemption) (uuid.UUID, error) {
	if t.store.failInsert {
		return uuid.Nil, errors.New("insert failed")
	}
	redemption.ID = uuid.New()
	t.inserted = append(t.inserted, redemption)
	return redemption.ID, nil
}
