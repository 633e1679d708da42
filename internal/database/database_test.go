package database

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/delwarHosen/pop-chat-server/internal/models"
)

// newTestDB opens a throwaway file-backed SQLite database with the same gorm
// config the server uses, so unique-violation translation behaves like prod.
func newTestDB(t *testing.T) *Database {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "chat.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewDatabase(db)
}

func seedUser(t *testing.T, d *Database, name string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "x",
		Name:         name,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, d.SaveUser(user))
	return user
}
