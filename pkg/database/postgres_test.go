package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"
)

type migrateProbe struct {
	ID   int64
	Name string
}

func TestOpen_MigratesModels(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"), Options{LogLevel: "silent", MaxOpenConns: 1}, nil, &migrateProbe{})
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&migrateProbe{}))
	require.NoError(t, db.Create(&migrateProbe{Name: "ok"}).Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, ParseLogLevel("silent"))
	assert.Equal(t, logger.Error, ParseLogLevel("ERROR"))
	assert.Equal(t, logger.Info, ParseLogLevel("info"))
	assert.Equal(t, logger.Warn, ParseLogLevel(""))
	assert.Equal(t, logger.Warn, ParseLogLevel("verbose"))
}
