package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin    UserRole = "admin"    // Quản trị hệ thống
	RoleEditor   UserRole = "editor"   // Biên tập viên (chưa dùng trong policy)
	RoleAdvanced UserRole = "advanced" // Người dùng nâng cao (chưa dùng trong policy)
	RoleBasic    UserRole = "basic"    // Người dùng thường
)

type UserStatus string

const (
	StatusPending UserStatus = "pending" // Chờ kích hoạt
	StatusActive  UserStatus = "active"  // Đang hoạt động
)

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username  string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Password  string     `gorm:"type:text;not null" json:"-"`
	Role      UserRole   `gorm:"type:varchar(20);not null;default:'basic'" json:"role"`
	Status    UserStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Quan hệ
	Notebooks []Notebook `gorm:"foreignKey:AuthorID" json:"notebooks,omitempty"`
}
