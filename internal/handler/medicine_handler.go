package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/dosewatch/internal/db"
	"github.com/dosewatch/internal/dose"
	"github.com/dosewatch/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	instructionSanitizer = bluemonday.UGCPolicy()
)

type addMedicineRequest struct {
	Name          string   `json:"name"`
	Time          string   `json:"time"`
	Times         []string `json:"times"`
	PatientID     string   `json:"patientId"`
	CreatedBy     string   `json:"createdBy"`
	TotalQuantity *int     `json:"totalQuantity"`
	Instructions  string   `json:"instructions"`
}

type updateMedicineRequest struct {
	Name          *string  `json:"name"`
	TotalQuantity *int     `json:"totalQuantity"`
	ImageURL      *string  `json:"imageUrl"`
	Instructions  *string  `json:"instructions"`
	Times         []string `json:"times"`
}

type markRequest struct {
	MedicineID string `json:"medicineId"`
	PatientID  string `json:"patientId"`
	Time       string `json:"time"`
}

// medicineJSON 输出药品的线上格式：times 数组为准，同时镜像首个时间点到
// 顶层 time/status 以兼容旧客户端；inventory 为按当前状态即时推导的库存投影
func medicineJSON(m db.Medicine) gin.H {
	times := make([]gin.H, 0, len(m.Times))
	for _, t := range m.Times {
		times = append(times, gin.H{"time": t.Time, "status": t.Status})
	}

	payload := gin.H{
		"id":            m.ID,
		"name":          m.Name,
		"patientId":     m.PatientID,
		"createdBy":     m.CreatedBy,
		"imageUrl":      m.ImageURL,
		"thumbUrl":      m.ThumbURL,
		"instructions":  m.Instructions,
		"totalQuantity": m.TotalQuantity,
		"times":         times,
		"inventory":     dose.Project(m.TotalQuantity, len(m.Times)),
	}
	if len(m.Times) > 0 {
		payload["time"] = m.Times[0].Time
		payload["status"] = m.Times[0].Status
	}
	return payload
}

func respondMedicineError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMedicineNotFound):
		respondError(c, http.StatusNotFound, "medicine not found")
	case errors.Is(err, service.ErrPatientNotFound):
		respondError(c, http.StatusNotFound, "patient not found")
	case errors.Is(err, service.ErrDoseTimeNotFound):
		respondError(c, http.StatusNotFound, "dose time not found")
	case errors.Is(err, service.ErrMedicineNameRequired),
		errors.Is(err, service.ErrDoseTimeRequired),
		errors.Is(err, service.ErrInvalidDoseTime),
		errors.Is(err, service.ErrDuplicateDoseTime):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// AddMedicine 创建药品；已接收 times 数组时优先，否则退回单个 time
func (a *API) AddMedicine(c *gin.Context) {
	var req addMedicineRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	times := req.Times
	if len(times) == 0 && req.Time != "" {
		times = []string{req.Time}
	}

	medicine, err := a.medicines.Create(service.MedicineInput{
		Name:          req.Name,
		Times:         times,
		PatientID:     req.PatientID,
		CreatedBy:     req.CreatedBy,
		TotalQuantity: req.TotalQuantity,
		Instructions:  req.Instructions,
	})
	if err != nil {
		respondMedicineError(c, err, "failed to add medicine")
		return
	}

	created, err := a.medicines.Get(medicine.ID)
	if err != nil {
		respondMedicineError(c, err, "failed to add medicine")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "medicine": medicineJSON(*created)})
}

// GetMedicines 返回某患者的药品列表
func (a *API) GetMedicines(c *gin.Context) {
	patientID, ok := requireQuery(c, "patientId")
	if !ok {
		return
	}

	medicines, err := a.medicines.List(patientID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to fetch medicines")
		return
	}

	response := make([]gin.H, 0, len(medicines))
	for _, m := range medicines {
		response = append(response, medicineJSON(m))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "medicines": response})
}

// UpdateMedicine 更新名称/库存/图片引用/说明/时间表
func (a *API) UpdateMedicine(c *gin.Context) {
	var req updateMedicineRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	medicine, err := a.medicines.Update(c.Param("id"), service.MedicineUpdate{
		Name:          req.Name,
		TotalQuantity: req.TotalQuantity,
		ImageURL:      req.ImageURL,
		Instructions:  req.Instructions,
		Times:         req.Times,
	})
	if err != nil {
		respondMedicineError(c, err, "failed to update medicine")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "medicine": medicineJSON(*medicine)})
}

// DeleteMedicine 删除药品
func (a *API) DeleteMedicine(c *gin.Context) {
	if err := a.medicines.Delete(c.Param("id")); err != nil {
		respondMedicineError(c, err, "failed to delete medicine")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Medicine deleted successfully"})
}

// MarkTaken 标记某时间点已服用
func (a *API) MarkTaken(c *gin.Context) {
	var req markRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	if _, err := a.medicines.MarkTaken(req.MedicineID, req.Time); err != nil {
		respondMedicineError(c, err, "failed to mark taken")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Medicine marked as taken"})
}

// MarkMissed 标记某时间点漏服并向所有 caregiver 扇出通知
func (a *API) MarkMissed(c *gin.Context) {
	var req markRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	medicine, entry, err := a.medicines.MarkMissed(req.MedicineID, req.Time)
	if err != nil {
		respondMedicineError(c, err, "failed to mark missed")
		return
	}

	if _, err := a.notifications.FanOutMissedDose(req.PatientID, medicine, entry.Time); err != nil {
		if errors.Is(err, service.ErrPatientNotFound) {
			respondError(c, http.StatusNotFound, "patient not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to notify caregivers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Medicine marked as missed, caregiver notified"})
}

// GetInstructions 渲染服药说明：Markdown 转 HTML 并做安全过滤
func (a *API) GetInstructions(c *gin.Context) {
	medicine, err := a.medicines.Get(c.Param("id"))
	if err != nil {
		respondMedicineError(c, err, "failed to fetch medicine")
		return
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(medicine.Instructions), &buf); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to render instructions")
		return
	}
	safe := instructionSanitizer.SanitizeBytes(buf.Bytes())

	c.JSON(http.StatusOK, gin.H{"success": true, "html": string(safe)})
}

// ScanPrescription 处方扫描存根：返回固定的识别结果列表
func (a *API) ScanPrescription(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "results": a.scans.Scan(nil)})
}
