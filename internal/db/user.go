package db

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 用户角色：patient 本人服药，caregiver 负责管理并接收漏服通知
const (
	RolePatient   = "patient"
	RoleCaregiver = "caregiver"
)

// User 定义了用户模型
// LinkCode 为 6 位大写字母数字邀请码，caregiver 凭此与 patient 互相绑定
// LinkedUsers 为双向多对多关系，绑定时两侧同时写入
type User struct {
	ID          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string  `gorm:"not null"`
	Role        string  `gorm:"not null"`
	LinkCode    string  `gorm:"uniqueIndex"`
	LinkedUsers []*User `gorm:"many2many:user_links"`
}

// BeforeCreate 生成 UUID 主键与邀请码
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.LinkCode == "" {
		code, err := NewLinkCode()
		if err != nil {
			return err
		}
		u.LinkCode = code
	}
	return nil
}

const linkCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewLinkCode 生成 6 位邀请码，排除易混淆字符（0/O、1/I）
func NewLinkCode() (string, error) {
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(linkCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = linkCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
