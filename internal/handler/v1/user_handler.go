package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/telecare/telecare/internal/domain"
	"github.com/telecare/telecare/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type registerUserRequest struct {
	Mobile      string `json:"mobile" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Age         int    `json:"age"`
	DateOfBirth string `json:"dob"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
	State       string `json:"state"`
	HIDN        string `json:"hidn"`
	HID         string `json:"hid"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerUserRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.users.Register(c.Request.Context(), &service.RegisterUserCommand{
		Mobile:      req.Mobile,
		Name:        req.Name,
		Age:         req.Age,
		DateOfBirth: req.DateOfBirth,
		Gender:      domain.Gender(req.Gender),
		Address:     req.Address,
		State:       req.State,
		HIDN:        req.HIDN,
		HID:         req.HID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, gin.H{
		"mobile": u.Mobile,
		"name":   u.Name,
	})
}

type userLoginRequest struct {
	Mobile string `json:"mobile" binding:"required"`
}

// Login identifies a returning patient by mobile number. There is no
// patient credential beyond the number itself.
func (h *UserHandler) Login(c *gin.Context) {
	var req userLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.users.GetByMobile(c.Request.Context(), req.Mobile)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, u)
}

func (h *UserHandler) GetByMobile(c *gin.Context) {
	u, err := h.users.GetByMobile(c.Request.Context(), c.Param("mobile"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, u)
}

func (h *UserHandler) History(c *gin.Context) {
	entries, err := h.users.History(c.Request.Context(), c.Param("mobile"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, entries)
}
