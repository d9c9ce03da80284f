package handler

import (
	"github.com/dosewatch/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db            *gorm.DB
	users         *service.UserService
	medicines     *service.MedicineService
	notifications *service.NotificationService
	scans         *service.ScanService
	uploadDir     string
	uploadURL     string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, uploadDir, uploadURL string) *API {
	return &API{
		db:            db,
		users:         service.NewUserService(db),
		medicines:     service.NewMedicineService(db),
		notifications: service.NewNotificationService(db),
		scans:         service.NewScanService(),
		uploadDir:     uploadDir,
		uploadURL:     uploadURL,
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}
