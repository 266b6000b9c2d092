package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	model "github.com/fabioluiz1/thanx-take-home/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bootstrap inserts used by cmd/seed. Catalog management proper lives
// outside this service.

// CreateUser inserts a user, keeping an existing account with the same
// email untouched. Returns the id of the inserted row, uuid.Nil when the
// email already existed.
func (p *RewardsDB) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	if err := user.Validate(); err != nil {
		return uuid.Nil, err
	}
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer conn.Release()

	id := uuid.New()
	sql, args, err := sq.Insert("users").
		Columns("id", "email", "points_balance").
		Values(id, user.Email, user.PointsBalance).
		Suffix("ON CONFLICT (email) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		p.logger.Error("SQL error",
			zap.Error(err),
			zap.String("query", sql),
			zap.Any("args", args),
		)
		return uuid.Nil, err
	}
	if tag.RowsAffected() == 0 {
		return uuid.Nil, nil
	}
	return id, nil
}

func (p *RewardsDB) CreateReward(ctx context.Context, reward model.Reward) (uuid.UUID, error) {
	if err := reward.Validate(); err != nil {
		return uuid.Nil, err
	}
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer conn.Release()

	id := uuid.New()
	sql, args, err := sq.Insert("rewards").
		Columns("id", "name", "description", "image_url", "points_cost", "available").
		Values(id, reward.Name, reward.Description, reward.ImageURL, reward.PointsCost, reward.Available).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	_, err = conn.Exec(ctx, sql, args...)
	if err != nil {
		p.logger.Error("SQL error",
			zap.Error(err),
			zap.String("query", sql),
			zap.Any("args", args),
		)
		return uuid.Nil, err
	}
	return id, nil
}

func (p *RewardsDB) CountRewards(ctx context.Context) (count int, err error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, "SELECT count(*) FROM rewards").Scan(&count)
	return count, err
}
