package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dosewatch/internal/db"
	"github.com/dosewatch/internal/service"
	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type linkUserRequest struct {
	RequesterID string `json:"requesterId"`
	LinkCode    string `json:"linkCode"`
}

func userJSON(u db.User) gin.H {
	linked := make([]gin.H, 0, len(u.LinkedUsers))
	for _, l := range u.LinkedUsers {
		linked = append(linked, gin.H{"id": l.ID, "name": l.Name, "role": l.Role})
	}

	return gin.H{
		"id":          u.ID,
		"name":        u.Name,
		"role":        u.Role,
		"linkCode":    u.LinkCode,
		"linkedUsers": linked,
	}
}

// CreateUser 创建用户并返回生成的邀请码
func (a *API) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	user, err := a.users.Create(req.Name, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNameRequired),
			errors.Is(err, service.ErrInvalidRole):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": userJSON(*user)})
}

// LinkUser 凭邀请码双向绑定两名用户
func (a *API) LinkUser(c *gin.Context) {
	var req linkUserRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	target, requester, err := a.users.Link(req.RequesterID, req.LinkCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkCodeNotFound):
			respondError(c, http.StatusNotFound, "link code not found")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "requester not found")
		case errors.Is(err, service.ErrAlreadyLinked):
			respondError(c, http.StatusBadRequest, "users are already linked")
		default:
			respondError(c, http.StatusInternalServerError, "failed to link users")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    fmt.Sprintf("Successfully linked to %s", target.Name),
		"linkedUser": userJSON(*target),
		"requester":  userJSON(*requester),
	})
}

// GetUser 返回单个用户及其绑定列表
func (a *API) GetUser(c *gin.Context) {
	user, err := a.users.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": userJSON(*user)})
}
