package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError 以 {success:false,error} 形式返回错误，与移动端约定一致
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func requireQuery(c *gin.Context, key string) (string, bool) {
	value := c.Query(key)
	if value == "" {
		respondError(c, http.StatusBadRequest, key+" is required")
		return "", false
	}
	return value, true
}
