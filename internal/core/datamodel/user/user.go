package user

import (
	"time"

	"github.com/frahmantamala/inventory-management/internal/core/datamodel"
)

type User struct {
	ID           int64      `gorm:"primaryKey"`
	Username     string     `gorm:"column:username;not null;index"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	DisplayName  string     `gorm:"column:display_name"`
	Role         string     `gorm:"column:role;not null"`
	IsActive     bool       `gorm:"column:is_active;not null"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	datamodel.Archivable
	datamodel.Versioned
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type UserSession struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       int64     `gorm:"column:user_id;not null;index"`
	SessionToken string    `gorm:"column:session_token;not null;uniqueIndex"`
	LoginTime    time.Time `gorm:"column:login_time;not null"`
	ExpiryTime   time.Time `gorm:"column:expiry_time;not null"`
	IPAddress    string    `gorm:"column:ip_address"`
	UserAgent    string    `gorm:"column:user_agent"`
	IsActive     bool      `gorm:"column:is_active;not null"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}

// Live reports whether the session row still authorizes requests at now.
func (s *UserSession) Live(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiryTime)
}
