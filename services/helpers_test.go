package services

import (
	"strings"
	"testing"
	"time"

	"github.com/sahilchouksey/learnhub/database"
	"github.com/sahilchouksey/learnhub/messaging"
	"github.com/sahilchouksey/learnhub/services/rules"
	"github.com/sahilchouksey/learnhub/utils/auth"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T, models ...[]interface{}) *gorm.DB {
	t.Helper()

	var all []interface{}
	for _, m := range models {
		all = append(all, m...)
	}
	db, err := database.OpenSQLiteMemory(strings.ReplaceAll(t.Name(), "/", "_"), all...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestAchievementService(t *testing.T) (*AchievementService, *messaging.InMemoryBus, *gorm.DB) {
	t.Helper()
	db := newTestDB(t, database.AchievementModels)
	bus := messaging.NewInMemoryBus()
	return NewAchievementService(db, rules.NewRuleSet(rules.DefaultSilverThreshold), bus, nil), bus, db
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTConfig{
		Secret: "test-secret-test-secret-test-secret",
		Expiry: time.Hour,
		Issuer: "learnhub-test",
	})
}
