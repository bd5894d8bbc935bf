package api

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/social"
)

// UserAPI provides account methods
type UserAPI struct {
	users    *social.Users
	cascader *social.Cascader
	logger   *zap.Logger
}

// NewUserAPI creates a new user API
func NewUserAPI(svc *social.Service, logger *zap.Logger) *UserAPI {
	return &UserAPI{
		users:    svc.Users,
		cascader: svc.Cascader,
		logger:   logger.With(zap.String("component", "user-api")),
	}
}

type registerParams struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type userIDParams struct {
	UserID uint `json:"user_id" validate:"required"`
}

type addSkillParams struct {
	UserID uint   `json:"user_id" validate:"required"`
	Skill  string `json:"skill" validate:"required,max=128"`
}

type paymentParams struct {
	UserID uint       `json:"user_id" validate:"required"`
	PaidAt *time.Time `json:"paid_at"`
}

// Register handles user.register
func (a *UserAPI) Register(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p registerParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.users.Register(c.Request.Context(), p.Username, p.Email, p.Password)
}

// Get handles user.get
func (a *UserAPI) Get(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.users.GetUser(c.Request.Context(), p.UserID)
}

// AddSkill handles user.add_skill
func (a *UserAPI) AddSkill(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p addSkillParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.users.AddSkill(c.Request.Context(), p.UserID, p.Skill)
}

// RecordPayment handles user.record_payment; paid_at defaults to now
func (a *UserAPI) RecordPayment(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p paymentParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	paidAt := time.Now().UTC()
	if p.PaidAt != nil {
		paidAt = *p.PaidAt
	}
	if err := a.users.RecordPayment(c.Request.Context(), p.UserID, paidAt); err != nil {
		return nil, err
	}
	return gin.H{"user_id": p.UserID, "is_premium": true}, nil
}

// Delete handles user.delete
func (a *UserAPI) Delete(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := a.cascader.DeleteUser(c.Request.Context(), p.UserID); err != nil {
		return nil, err
	}
	return gin.H{"deleted": true}, nil
}
