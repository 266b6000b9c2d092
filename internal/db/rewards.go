package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	interf "github.com/fabioluiz1/thanx-take-home/internal/interfaces"
	model "github.com/fabioluiz1/thanx-take-home/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const defaultLockTimeoutMS = 5000

// lock_not_available - lock wait exceeded lock_timeout
const pgLockNotAvailable = "55P03"

type RewardsDB struct {
	pool          *pgxpool.Pool
	logger        *zap.Logger
	lockTimeoutMS int
}

func NewRewardsDB(logger *zap.Logger) (db *RewardsDB, err error) {
	// config
	purl := os.Getenv("REWARDS_DB")
	if purl == "" {
		return nil, fmt.Errorf("env REWARDS_DB is not set")
	}
	port := os.Getenv("REWARDS_DB_PORT")
	if port == "" {
		return nil, fmt.Errorf("env REWARDS_DB_PORT is not set")
	}
	user := os.Getenv("REWARDS_DB_USER")
	if user == "" {
		return nil, fmt.Errorf("env REWARDS_DB_USER is not set")
	}
	password := os.Getenv("REWARDS_DB_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("env REWARDS_DB_PASSWORD is not set")
	}
	database := os.Getenv("REWARDS_DB_BASE")
	if database == "" {
		return nil, fmt.Errorf("env REWARDS_DB_BASE is not set")
	}
	dsn := "postgres://" + user + ":" + password + "@" + purl + ":" + port + "/" + database

	lockTimeout := defaultLockTimeoutMS
	if v := os.Getenv("REWARDS_LOCK_TIMEOUT_MS"); v != "" {
		lockTimeout, err = strconv.Atoi(v)
		if err != nil || lockTimeout <= 0 {
			lockTimeout = defaultLockTimeoutMS
		}
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	return &RewardsDB{pool, logger, lockTimeout}, err
}

func (p *RewardsDB) Close() {
	p.pool.Close()
}

// WithinTx runs fn inside one database transaction. Any error from fn or
// from commit rolls the whole transaction back. A lock wait exceeding
// lock_timeout surfaces as model.ErrBusy instead of blocking forever.
func (p *RewardsDB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx interf.RedeemTx) error) (err error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
			err = p.mapLockError(err)
		}
	}()

	// SET LOCAL is scoped to this transaction, lock_timeout does not take
	// bind parameters
	_, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", p.lockTimeoutMS))
	if err != nil {
		return err
	}

	err = fn(ctx, &redeemTx{tx, p.logger})
	if err != nil {
		return err
	}
	err = tx.Commit(ctx)
	return err
}

func (p *RewardsDB) mapLockError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == pgLockNotAvailable {
		return fmt.Errorf("%w: %s", model.ErrBusy, pgerr.Message)
	}
	return err
}

// redeemTx scopes store access to one open transaction.
type redeemTx struct {
	tx     pgx.Tx
	logger *zap.Logger
}

// GetUserForUpdate blocks the user row until the transaction ends, so
// concurrent redemptions for the same user serialize here.
func (t *redeemTx) GetUserForUpdate(ctx context.Context, userID uuid.UUID) (user model.User, err error) {
	row := t.tx.QueryRow(ctx, "SELECT id, email, points_balance FROM users WHERE id = $1 FOR UPDATE", userID)
	user, err = scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

// GetReward reads without a lock: availability and cost are treated as
// stable for the duration of one redemption attempt.
func (t *redeemTx) GetReward(ctx context.Context, rewardID uuid.UUID) (reward model.Reward, err error) {
	sql, args, err := sq.Select("id", "name", "description", "image_url", "points_cost", "available").
		From("rewards").
		Where(sq.Eq{"id": rewardID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return model.Reward{}, err
	}

	reward, err = scanReward(t.tx.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Reward{}, model.ErrRewardNotFound
		}
		return model.Reward{}, err
	}
	return reward, nil
}

func (t *redeemTx) UpdateUserBalance(ctx context.Context, userID uuid.UUID, balance int) error {
	sql, args, err := sq.Update("users").
		Set("points_balance", balance).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": userID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = t.tx.Exec(ctx, sql, args...)
	if err != nil {
		t.logger.Error("SQL error",
			zap.Error(err),
			zap.String("query", sql),
			zap.Any("args", args),
		)
		return err
	}
	return nil
}

func (t *redeemTx) InsertRedemption(ctx context.Context, redemption model.Redemption) (uuid.UUID, error) {
	id := uuid.New()

	sql, args, err := sq.Insert("redemptions").
		Columns("id", "user_id", "reward_id", "points_spent", "redeemed_at").
		Values(id, redemption.UserID, redemption.RewardID, redemption.PointsSpent, redemption.RedeemedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	_, err = t.tx.Exec(ctx, sql, args...)
	if err != nil {
		t.logger.Error("SQL error",
			zap.Error(err),
			zap.String("query", sql),
			zap.Any("args", args),
		)
		return uuid.Nil, err
	}
	return id, nil
}

// GetUser fetches a user without locking.
func (p *RewardsDB) GetUser(ctx context.Context, userID uuid.UUID) (user model.User, err error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return model.User{}, err
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, "SELECT id, email, points_balance FROM users WHERE id = $1", userID)
	user, err = scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

// GetFirstUser returns the oldest user account. Demo-mode identity
// fallback only.
func (p *RewardsDB) GetFirstUser(ctx context.Context) (user model.User, err error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return model.User{}, err
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, "SELECT id, email, points_balance FROM users ORDER BY created_at LIMIT 1")
	user, err = scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

// ListAvailableRewards returns available rewards ordered by ascending
// cost, backed by the (available, points_cost) index.
func (p *RewardsDB) ListAvailableRewards(ctx context.Context, limit int, offset int) (rewards []model.Reward, err error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	sql, args, err := sq.Select("id", "name", "description", "image_url", "points_cost", "available").
		From("rewards").
		Where(sq.Eq{"available": true}).
		OrderBy("points_cost ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		p.logger.Error("SQL error", zap.Error(err), zap.String("query", sql))
		return nil, err
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, reward)
	}
	return rewards, rows.Err()
}

// ListRedemptionsForUser returns the user's redemptions newest first,
// with each reward joined in the same query.
func (p *RewardsDB) ListRedemptionsForUser(ctx context.Context, userID uuid.UUID) (redemptions []model.Redemption, err error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	sql, args, err := sq.Select(
		"r.id", "r.user_id", "r.reward_id", "r.points_spent", "r.redeemed_at",
		"w.id", "w.name", "w.description", "w.image_url", "w.points_cost", "w.available").
		From("redemptions r").
		Join("rewards w ON w.id = r.reward_id").
		Where(sq.Eq{"r.user_id": userID}).
		OrderBy("r.redeemed_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		p.logger.Error("SQL error", zap.Error(err), zap.String("query", sql))
		return nil, err
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var red model.Redemption
		var reward model.Reward
		var redID, userRef, rewardRef, wID pgtype.UUID
		var description, imageURL pgtype.Text
		err = rows.Scan(&redID, &userRef, &rewardRef, &red.PointsSpent, &red.RedeemedAt,
			&wID, &reward.Name, &description, &imageURL, &reward.PointsCost, &reward.Available)
		if err != nil {
			return nil, err
		}
		red.ID = uuid.UUID(redID.Bytes)
		red.UserID = uuid.UUID(userRef.Bytes)
		red.RewardID = uuid.UUID(rewardRef.Bytes)
		reward.ID = uuid.UUID(wID.Bytes)
		reward.Description = description.String
		reward.ImageURL = imageURL.String
		red.Reward = &reward
		redemptions = append(redemptions, red)
	}
	return redemptions, rows.Err()
}

func scanUser(row pgx.Row) (user model.User, err error) {
	var id pgtype.UUID
	err = row.Scan(&id, &user.Email, &user.PointsBalance)
	if err != nil {
		return model.User{}, err
	}
	user.ID = uuid.UUID(id.Bytes)
	return user, nil
}

func scanReward(row pgx.Row) (reward model.Reward, err error) {
	var id pgtype.UUID
	var description, imageURL pgtype.Text
	err = row.Scan(&id, &reward.Name, &description, &imageURL, &reward.PointsCost, &reward.Available)
	if err != nil {
		return model.Reward{}, err
	}
	reward.ID = uuid.UUID(id.Bytes)
	reward.Description = description.String
	reward.ImageURL = imageURL.String
	return reward, nil
}
