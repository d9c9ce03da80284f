package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetNotifications 返回某用户的漏服通知，新的在前
func (a *API) GetNotifications(c *gin.Context) {
	userID, ok := requireQuery(c, "userId")
	if !ok {
		return
	}

	notifications, err := a.notifications.List(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to fetch notifications")
		return
	}

	response := make([]gin.H, 0, len(notifications))
	for _, n := range notifications {
		response = append(response, gin.H{
			"id":         n.ID,
			"userId":     n.UserID,
			"medicineId": n.MedicineID,
			"patientId":  n.PatientID,
			"message":    n.Message,
			"createdAt":  n.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": response})
}
