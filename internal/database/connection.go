package database

import (
	"errors"
	"os"

	"github.com/delwarHosen/pop-chat-server/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func (d *Database) Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	// TranslateError maps unique violations to gorm.ErrDuplicatedKey, which
	// the direct-conversation dedup relies on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		// conversations.last_message_id and messages.conversation_id
		// reference each other; let the schema skip the circular FKs.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		return err
	}

	d.db = db

	return nil
}
