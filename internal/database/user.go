package database

import (
	"github.com/delwarHosen/pop-chat-server/internal/models"
)

func (d *Database) SaveUser(user *models.User) error {
	return d.db.Create(user).Error
}

func (d *Database) UpdateUser(user *models.User) error {
	return d.db.Save(user).Error
}

func (d *Database) GetUser(id string) (*models.User, error) {
	user := models.User{}
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(email string) (*models.User, error) {
	user := models.User{}
	if err := d.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListContacts returns every registered user except the caller.
func (d *Database) ListContacts(excludeID string) ([]models.User, error) {
	var users []models.User
	err := d.db.
		Where("id != ?", excludeID).
		Order("name ASC").
		Find(&users).Error
	return users, err
}
