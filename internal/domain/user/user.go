package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Name  string    `gorm:"not null;column:name" json:"name"`
	Role  Role      `gorm:"type:varchar(32);not null;column:role;default:'pending';index" json:"role"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Principal is the caller identity the permission checks operate on.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

func (u *User) Principal() Principal {
	if u == nil {
		return Principal{Role: RolePending}
	}
	return Principal{ID: u.ID, Role: u.Role}
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
