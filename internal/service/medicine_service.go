package service

import (
	"errors"
	"strings"
	"time"

	"github.com/dosewatch/internal/db"
	"github.com/dosewatch/internal/dose"
	"gorm.io/gorm"
)

var (
	// ErrMedicineNotFound 在指定药品不存在时返回
	ErrMedicineNotFound = errors.New("medicine not found")
	// ErrMedicineNameRequired 在药品名为空时返回
	ErrMedicineNameRequired = errors.New("medicine name is required")
	// ErrDoseTimeRequired 在未提供任何服药时间时返回
	ErrDoseTimeRequired = errors.New("at least one dose time is required")
	// ErrInvalidDoseTime 在时间格式非法时返回
	ErrInvalidDoseTime = errors.New("invalid dose time")
	// ErrDuplicateDoseTime 在同一药品出现重复时间点时返回
	ErrDuplicateDoseTime = errors.New("duplicate dose time")
	// ErrDoseTimeNotFound 在标记的时间点不存在时返回
	ErrDoseTimeNotFound = errors.New("dose time not found")
	// ErrPatientNotFound 在归属患者不存在时返回
	ErrPatientNotFound = errors.New("patient not found")
)

// MedicineService 负责药品及其服药时间的增删改查与状态标记
type MedicineService struct {
	db *gorm.DB
}

// MedicineInput 定义创建药品时可配置字段；Times 为 "HH:MM" 列表
type MedicineInput struct {
	Name          string
	Times         []string
	PatientID     string
	CreatedBy     string
	TotalQuantity *int
	Instructions  string
}

// MedicineUpdate 定义更新时的可选字段，nil 表示保持不变；
// Times 非 nil 时整体替换时间表，所有状态重置为 pending
type MedicineUpdate struct {
	Name          *string
	TotalQuantity *int
	ImageURL      *string
	Instructions  *string
	Times         []string
}

// NewMedicineService 构造 MedicineService
func NewMedicineService(gdb *gorm.DB) *MedicineService {
	return &MedicineService{db: gdb}
}

// normalizeTimes 解析并去重时间列表，返回规范化 "HH:MM" 形式
func normalizeTimes(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, ErrDoseTimeRequired
	}

	seen := make(map[string]bool, len(raw))
	times := make([]string, 0, len(raw))
	for _, s := range raw {
		t, err := dose.ParseTimeOfDay(s)
		if err != nil {
			return nil, ErrInvalidDoseTime
		}
		canonical := t.String()
		if seen[canonical] {
			return nil, ErrDuplicateDoseTime
		}
		seen[canonical] = true
		times = append(times, canonical)
	}
	return times, nil
}

// Create 创建药品及其 pending 状态的服药时间
func (s *MedicineService) Create(input MedicineInput) (*db.Medicine, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrMedicineNameRequired
	}

	times, err := normalizeTimes(input.Times)
	if err != nil {
		return nil, err
	}

	var patient db.User
	if err := s.db.First(&patient, "id = ?", input.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	medicine := db.Medicine{
		Name:          name,
		PatientID:     input.PatientID,
		CreatedBy:     input.CreatedBy,
		TotalQuantity: input.TotalQuantity,
		Instructions:  input.Instructions,
	}
	for _, t := range times {
		medicine.Times = append(medicine.Times, db.DoseTime{Time: t, Status: string(dose.StatusPending)})
	}

	if err := s.db.Create(&medicine).Error; err != nil {
		return nil, err
	}
	return &medicine, nil
}

// List 返回某患者的全部药品，时间表按时间点排序
func (s *MedicineService) List(patientID string) ([]db.Medicine, error) {
	var medicines []db.Medicine
	err := s.db.
		Preload("Times", func(tx *gorm.DB) *gorm.DB { return tx.Order("time") }).
		Where("patient_id = ?", patientID).
		Order("created_at").
		Find(&medicines).Error
	if err != nil {
		return nil, err
	}
	return medicines, nil
}

// Get 按 ID 返回药品
func (s *MedicineService) Get(id string) (*db.Medicine, error) {
	var medicine db.Medicine
	err := s.db.
		Preload("Times", func(tx *gorm.DB) *gorm.DB { return tx.Order("time") }).
		First(&medicine, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMedicineNotFound
		}
		return nil, err
	}
	return &medicine, nil
}

// Update 更新药品基础信息，必要时整体替换时间表
func (s *MedicineService) Update(id string, update MedicineUpdate) (*db.Medicine, error) {
	medicine, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, ErrMedicineNameRequired
		}
		medicine.Name = name
	}
	if update.TotalQuantity != nil {
		qty := *update.TotalQuantity
		if qty < 0 {
			qty = 0
		}
		medicine.TotalQuantity = &qty
	}
	if update.ImageURL != nil {
		medicine.ImageURL = *update.ImageURL
		if *update.ImageURL == "" {
			medicine.ThumbURL = ""
		}
	}
	if update.Instructions != nil {
		medicine.Instructions = *update.Instructions
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if update.Times != nil {
			times, err := normalizeTimes(update.Times)
			if err != nil {
				return err
			}
			// 替换时间表时旧状态一并作废，全部回到 pending
			if err := tx.Where("medicine_id = ?", medicine.ID).Delete(&db.DoseTime{}).Error; err != nil {
				return err
			}
			medicine.Times = nil
			for _, t := range times {
				medicine.Times = append(medicine.Times, db.DoseTime{
					MedicineID: medicine.ID,
					Time:       t,
					Status:     string(dose.StatusPending),
				})
			}
		}
		return tx.Save(medicine).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(id)
}

// SetImage 记录上传后的图片与缩略图地址
func (s *MedicineService) SetImage(id, imageURL, thumbURL string) (*db.Medicine, error) {
	medicine, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	medicine.ImageURL = imageURL
	medicine.ThumbURL = thumbURL
	if err := s.db.Save(medicine).Error; err != nil {
		return nil, err
	}
	return medicine, nil
}

// Delete 删除药品及其级联的时间表
func (s *MedicineService) Delete(id string) error {
	medicine, err := s.Get(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("medicine_id = ?", medicine.ID).Delete(&db.DoseTime{}).Error; err != nil {
			return err
		}
		return tx.Delete(medicine).Error
	})
}

// findDoseTime 定位标记目标时间点；timeStr 为空且仅有单个时间点时取该项，
// 兼容只传 medicineId 的旧客户端
func findDoseTime(medicine *db.Medicine, timeStr string) (*db.DoseTime, error) {
	if strings.TrimSpace(timeStr) == "" {
		if len(medicine.Times) == 1 {
			return &medicine.Times[0], nil
		}
		return nil, ErrDoseTimeNotFound
	}

	t, err := dose.ParseTimeOfDay(timeStr)
	if err != nil {
		return nil, ErrDoseTimeNotFound
	}
	canonical := t.String()

	for i := range medicine.Times {
		if medicine.Times[i].Time == canonical {
			return &medicine.Times[i], nil
		}
	}
	return nil, ErrDoseTimeNotFound
}

// MarkTaken 将指定时间点标记为已服用并记录时间戳
func (s *MedicineService) MarkTaken(medicineID, timeStr string) (*db.Medicine, error) {
	medicine, err := s.Get(medicineID)
	if err != nil {
		return nil, err
	}

	entry, err := findDoseTime(medicine, timeStr)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entry.Status = string(dose.StatusTaken)
	entry.TakenAt = &now
	if err := s.db.Save(entry).Error; err != nil {
		return nil, err
	}
	return medicine, nil
}

// MarkMissed 将指定时间点标记为漏服并记录时间戳，返回受影响的时间点
// 供调用方做 caregiver 通知扇出
func (s *MedicineService) MarkMissed(medicineID, timeStr string) (*db.Medicine, *db.DoseTime, error) {
	medicine, err := s.Get(medicineID)
	if err != nil {
		return nil, nil, err
	}

	entry, err := findDoseTime(medicine, timeStr)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	entry.Status = string(dose.StatusMissed)
	entry.MissedAt = &now
	if err := s.db.Save(entry).Error; err != nil {
		return nil, nil, err
	}
	return medicine, entry, nil
}
