package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 汇总运行服务与客户端代理所需的基础配置。
type AppConfig struct {
	ListenAddr    string
	Port          string
	DatabasePath  string
	SessionSecret string
	GinMode       string
	UploadDir     string
	UploadURLPath string

	// 客户端代理（cmd/agent）相关
	APIBaseURL    string
	AgentDataDir  string
	PatientID     string
	PollInterval  time.Duration
	MissedWindow  int
	SnoozeMinutes int
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "dosewatch.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "dosewatch-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "data/uploads"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/static/uploads"
	}

	apiBaseURL := strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if apiBaseURL == "" {
		apiBaseURL = fmt.Sprintf("http://localhost:%s/api", port)
	}

	agentDataDir := strings.TrimSpace(os.Getenv("AGENT_DATA_DIR"))
	if agentDataDir == "" {
		agentDataDir = "data/agent"
	}

	return AppConfig{
		ListenAddr:    listenAddr,
		Port:          port,
		DatabasePath:  databasePath,
		SessionSecret: sessionSecret,
		GinMode:       ginMode,
		UploadDir:     uploadDir,
		UploadURLPath: uploadURLPath,
		APIBaseURL:    apiBaseURL,
		AgentDataDir:  agentDataDir,
		PatientID:     strings.TrimSpace(os.Getenv("PATIENT_ID")),
		PollInterval:  time.Duration(envInt("POLL_INTERVAL_SECONDS", 10)) * time.Second,
		MissedWindow:  envInt("MISSED_WINDOW_MINUTES", 10),
		SnoozeMinutes: envInt("SNOOZE_DURATION_MINUTES", 10),
	}
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
