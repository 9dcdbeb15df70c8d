package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifykit/verifykit/config"
)

type testModel struct {
	ID   uint   `gorm:"primarykey"`
	Name string `gorm:"size:64"`
}

func sqliteConfig() config.Config {
	return config.Config{
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
	}
}

func TestProvideDatabase(t *testing.T) {
	t.Run("opens a sqlite database and migrates models", func(t *testing.T) {
		db, err := ProvideDatabase(sqliteConfig(), WithModels(&testModel{}))
		require.NoError(t, err)
		require.NotNil(t, db)

		assert.True(t, db.Migrator().HasTable(&testModel{}))

		require.NoError(t, db.Create(&testModel{Name: "hello"}).Error)

		var loaded testModel
		require.NoError(t, db.First(&loaded, "name = ?", "hello").Error)
		assert.Equal(t, "hello", loaded.Name)
	})

	t.Run("skips migration when auto-migrate is disabled", func(t *testing.T) {
		cfg := sqliteConfig()
		cfg.Database.AutoMigrate = false

		db, err := ProvideDatabase(cfg, WithModels(&testModel{}))
		require.NoError(t, err)
		assert.False(t, db.Migrator().HasTable(&testModel{}))
	})

	t.Run("rejects unknown drivers", func(t *testing.T) {
		cfg := sqliteConfig()
		cfg.Database.Driver = "oracle"

		db, err := ProvideDatabase(cfg, nil)
		assert.Error(t, err)
		assert.Nil(t, db)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("works without a models option", func(t *testing.T) {
		db, err := ProvideDatabase(sqliteConfig(), nil)
		require.NoError(t, err)
		assert.NotNil(t, db)
	})
}
