package service

import (
	"errors"
	"fmt"

	"github.com/dosewatch/internal/db"
	"gorm.io/gorm"
)

// NotificationService 负责漏服通知的扇出与查询
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService 构造 NotificationService
func NewNotificationService(gdb *gorm.DB) *NotificationService {
	return &NotificationService{db: gdb}
}

// FanOutMissedDose 为 patient 的每个已绑定 caregiver 各生成一条漏服通知，
// 返回生成条数
func (s *NotificationService) FanOutMissedDose(patientID string, medicine *db.Medicine, doseTime string) (int, error) {
	var patient db.User
	if err := s.db.Preload("LinkedUsers").First(&patient, "id = ?", patientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPatientNotFound
		}
		return 0, err
	}

	message := fmt.Sprintf("%s missed the %s dose of %s", patient.Name, doseTime, medicine.Name)

	created := 0
	for _, linked := range patient.LinkedUsers {
		if linked.Role != db.RoleCaregiver {
			continue
		}
		notification := db.Notification{
			UserID:     linked.ID,
			MedicineID: medicine.ID,
			PatientID:  patient.ID,
			Message:    message,
		}
		if err := s.db.Create(&notification).Error; err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}

// List 返回某用户的全部通知，新的在前
func (s *NotificationService) List(userID string) ([]db.Notification, error) {
	var notifications []db.Notification
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
