package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	model "github.com/fabioluiz1/thanx-take-home/internal/models"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const userTTL = 5 * time.Minute

// CacheService keeps user profiles in redis so /users/me does not hit
// the database on every poll. Redemptions invalidate the entry.
type CacheService struct {
	client *redis.Client
}

func NewCacheService() (serv *CacheService, err error) {

	// config
	addr := os.Getenv("REWARDS_CACHE_URL")
	if addr == "" {
		return nil, fmt.Errorf("env REWARDS_CACHE_URL is not set")
	}
	user := os.Getenv("REWARDS_CACHE_USER")
	pwd := os.Getenv("REWARDS_CACHE_PWD")

	// redis
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    pwd,
		Username:    user,
		DB:          0,
		MaxRetries:  5,
		DialTimeout: 10 * time.Second,
	})
	err = client.Ping(context.Background()).Err()
	if err != nil {
		return nil, err
	}

	return &CacheService{client}, nil
}

func userKey(userID uuid.UUID) string {
	return "user:" + userID.String()
}

func (c *CacheService) GetUser(ctx context.Context, userID uuid.UUID) (user model.User, err error) {
	val, err := c.client.Get(ctx, userKey(userID)).Result()
	if err == redis.Nil {
		return model.User{}, fmt.Errorf("user not cached")
	} else if err != nil {
		return model.User{}, err
	}

	err = json.Unmarshal([]byte(val), &user)
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (c *CacheService) SetUser(ctx context.Context, user model.User) error {
	val, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, userKey(user.ID), val, userTTL).Err()
}

func (c *CacheService) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, userKey(userID)).Err()
}
