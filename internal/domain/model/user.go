package model

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleLogist Role = "logist"
	RoleWork   Role = "work"
)

// 定義済みのロールか
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLogist, RoleWork:
		return true
	}
	return false
}

// ロールは作成時に決まり、通常フローでは変更しない
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null" json:"role"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// 認証済みの呼び出し元。全操作に付く。
type Identity struct {
	UserID int64
	Role   Role
}

// user_idとroleが揃っているか
func (i Identity) Valid() bool {
	return i.UserID > 0 && i.Role.Valid()
}
