package service

import (
	"errors"
	"strings"

	"github.com/dosewatch/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 在指定用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
	// ErrLinkCodeNotFound 在邀请码无效时返回
	ErrLinkCodeNotFound = errors.New("link code not found")
	// ErrAlreadyLinked 在两名用户已绑定时返回
	ErrAlreadyLinked = errors.New("users are already linked")
	// ErrUserNameRequired 在用户名为空时返回
	ErrUserNameRequired = errors.New("user name is required")
	// ErrInvalidRole 在角色不是 patient/caregiver 时返回
	ErrInvalidRole = errors.New("role must be patient or caregiver")
)

// UserService handles user creation and the patient/caregiver link flow.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Create registers a user with a generated link code.
func (s *UserService) Create(name, role string) (*db.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrUserNameRequired
	}
	if role != db.RolePatient && role != db.RoleCaregiver {
		return nil, ErrInvalidRole
	}

	user := db.User{Name: name, Role: role}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Get fetches a user with linked users preloaded.
func (s *UserService) Get(id string) (*db.User, error) {
	var user db.User
	if err := s.db.Preload("LinkedUsers").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Link binds the requester to the owner of linkCode in both directions.
// It returns the link target and the requester with its refreshed link
// list.
func (s *UserService) Link(requesterID, linkCode string) (*db.User, *db.User, error) {
	code := strings.ToUpper(strings.TrimSpace(linkCode))

	var target db.User
	if err := s.db.First(&target, "link_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrLinkCodeNotFound
		}
		return nil, nil, err
	}

	requester, err := s.Get(requesterID)
	if err != nil {
		return nil, nil, err
	}

	if requester.ID == target.ID {
		return nil, nil, ErrAlreadyLinked
	}
	for _, linked := range requester.LinkedUsers {
		if linked.ID == target.ID {
			return nil, nil, ErrAlreadyLinked
		}
	}

	// 双向写入，保证任一侧都能查到对方
	if err := s.db.Model(requester).Association("LinkedUsers").Append(&target); err != nil {
		return nil, nil, err
	}
	if err := s.db.Model(&target).Association("LinkedUsers").Append(&db.User{ID: requester.ID}); err != nil {
		return nil, nil, err
	}

	refreshed, err := s.Get(requester.ID)
	if err != nil {
		return nil, nil, err
	}
	return &target, refreshed, nil
}
