package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Medicine 定义了药品模型
// TotalQuantity 为库存药片数，空值表示未开启库存跟踪
// Instructions 为 Markdown 格式的服药说明，渲染时做安全过滤
// Times 为每日服药时间列表（1..n），默认单次
type Medicine struct {
	ID            string `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Name          string `gorm:"not null"`
	PatientID     string `gorm:"index;not null"`
	CreatedBy     string `gorm:"not null"`
	ImageURL      string
	ThumbURL      string
	Instructions  string
	TotalQuantity *int
	Times         []DoseTime `gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate 生成 UUID 主键
func (m *Medicine) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// DoseTime 记录单个服药时间及其当日状态
// Medicine + Time 采用唯一索引，同一药品不允许重复时间点
// 状态机：pending -> taken/missed（终态）/snoozed；snoozed 可回到 taken/missed
type DoseTime struct {
	ID         uint   `gorm:"primaryKey"`
	MedicineID string `gorm:"index;index:idx_dose_time_unique,unique;not null"`
	Time       string `gorm:"index:idx_dose_time_unique,unique;not null"`
	Status     string `gorm:"not null;default:pending"`
	TakenAt    *time.Time
	MissedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName 重写确保唯一索引作用到 medicine_id + time
func (DoseTime) TableName() string {
	return "dose_times"
}
