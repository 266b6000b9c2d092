// Job - demo data bootstrap: one user with a starting balance and a
// small catalog. Safe to run repeatedly.
package main

import (
	"context"

	db "github.com/fabioluiz1/thanx-take-home/internal/db"
	model "github.com/fabioluiz1/thanx-take-home/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const demoEmail = "demo@example.com"
const demoBalance = 500

func main() {
	// log
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// database
	store, err := db.NewRewardsDB(logger)
	if err != nil {
		logger.Error(err.Error())
		panic(err)
	}
	defer store.Close()

	ctx := context.Background()

	id, err := store.CreateUser(ctx, model.User{Email: demoEmail, PointsBalance: demoBalance})
	if err != nil {
		logger.Error("seed user", zap.Error(err))
		panic(err)
	}
	if id == uuid.Nil {
		logger.Info("demo user already exists", zap.String("email", demoEmail))
	} else {
		logger.Info("created demo user", zap.String("email", demoEmail), zap.Int("points", demoBalance))
	}

	count, err := store.CountRewards(ctx)
	if err != nil {
		logger.Error("count rewards", zap.Error(err))
		panic(err)
	}
	if count > 0 {
		logger.Info("catalog already seeded", zap.Int("rewards", count))
		return
	}

	rewards := []model.Reward{
		{Name: "Free Coffee", Description: "Any small hot drink", PointsCost: 100, Available: true},
		{Name: "Pastry", Description: "One pastry of your choice", PointsCost: 150, Available: true},
		{Name: "Lunch Combo", Description: "Sandwich, side and a drink", PointsCost: 350, Available: true},
		{Name: "Tote Bag", Description: "Limited edition canvas tote", PointsCost: 500, Available: true},
		{Name: "Dinner for Two", Description: "Full dinner, drinks included", PointsCost: 1200, Available: true},
		{Name: "Secret Menu Item", Description: "Currently off the menu", PointsCost: 250, Available: false},
	}
	for _, reward := range rewards {
		if _, err := store.CreateReward(ctx, reward); err != nil {
			logger.Error("seed reward", zap.Error(err), zap.String("name", reward.Name))
			panic(err)
		}
	}
	logger.Info("seeded catalog", zap.Int("rewards", len(rewards)))
}
