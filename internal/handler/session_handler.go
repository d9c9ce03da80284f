package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const sessionUserKey = "current_user"

// SetSessionUser 将请求体原样存入会话，作为 Web 端的当前用户记录；
// 除要求可 JSON 序列化外不约束结构
func (a *API) SetSessionUser(c *gin.Context) {
	var raw json.RawMessage
	if !bindJSON(c, &raw, "invalid request body") {
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, string(raw))
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSessionUser 返回会话中的当前用户记录，未设置时 user 为 null
func (a *API) GetSessionUser(c *gin.Context) {
	session := sessions.Default(c)

	stored := session.Get(sessionUserKey)
	if stored == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "user": nil})
		return
	}

	raw, ok := stored.(string)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": true, "user": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": json.RawMessage(raw)})
}

// ClearSessionUser 清除会话中的当前用户记录
func (a *API) ClearSessionUser(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(sessionUserKey)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
