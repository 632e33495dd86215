package domain

import "time"

// User is a registered account. Users author recipes and own favorites,
// cart entries and follow relationships. Credentials are managed elsewhere.
type User struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	Email     string    `json:"email"      gorm:"type:varchar(254);not null;uniqueIndex"`
	Username  string    `json:"username"   gorm:"type:varchar(150);not null;uniqueIndex"`
	FirstName string    `json:"first_name" gorm:"type:varchar(150);not null"`
	LastName  string    `json:"last_name"  gorm:"type:varchar(150);not null"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
