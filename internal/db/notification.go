package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification 记录漏服提醒
// 标记漏服时为 patient 的每个已绑定 caregiver 各生成一条
type Notification struct {
	ID         string `gorm:"primaryKey"`
	CreatedAt  time.Time
	UserID     string `gorm:"index;not null"`
	MedicineID string `gorm:"not null"`
	PatientID  string `gorm:"not null"`
	Message    string `gorm:"not null"`
}

// BeforeCreate 生成 UUID 主键
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
