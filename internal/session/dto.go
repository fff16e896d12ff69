package session

import (
	"strings"
	"time"

	"github.com/frahmantamala/inventory-management/internal/core/common/validation"
)

type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r LoginRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	return nil
}

type LoginResult struct {
	Session        *Session
	AccessToken    string
	TokenExpiresAt time.Time
}

type LoginResponse struct {
	Session        View      `json:"session"`
	AccessToken    string    `json:"access_token"`
	TokenType      string    `json:"token_type"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
}
