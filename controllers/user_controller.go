package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alkemata/reasonreport-backend/accounts"
	"github.com/alkemata/reasonreport-backend/middleware"
	"github.com/alkemata/reasonreport-backend/models"
)

type ChangePasswordInput struct {
	Password string `json:"password" binding:"required,min=6"`
}

type AdminUpdateUserInput struct {
	Role     *string `json:"role"`
	Status   *string `json:"status"`
	Password *string `json:"password"`
}

type UserController struct {
	accounts *accounts.Service
	logger   *slog.Logger
}

func NewUserController(accounts *accounts.Service, logger *slog.Logger) *UserController {
	return &UserController{accounts: accounts, logger: logger}
}

// GET /api/user/me
func (uc *UserController) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// PUT /api/user/password
func (uc *UserController) ChangePassword(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
		return
	}

	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := uc.accounts.ChangePassword(c.Request.Context(), user.ID, input.Password); err != nil {
		uc.logger.Error("change password failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đổi mật khẩu"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đổi mật khẩu thành công"})
}

// GET /api/admin/users
func (uc *UserController) ListUsers(c *gin.Context) {
	users, err := uc.accounts.List(c.Request.Context())
	if err != nil {
		uc.logger.Error("list users failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy danh sách người dùng"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// PUT /api/admin/users/:id
// Username là immutable, chỉ role/status/password đổi được.
func (uc *UserController) UpdateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id không hợp lệ"})
		return
	}

	var input AdminUpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := accounts.AdminUpdateInput{Password: input.Password}
	if input.Role != nil {
		role := models.UserRole(*input.Role)
		switch role {
		case models.RoleAdmin, models.RoleEditor, models.RoleAdvanced, models.RoleBasic:
			update.Role = &role
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "role không hợp lệ"})
			return
		}
	}
	if input.Status != nil {
		status := models.UserStatus(*input.Status)
		switch status {
		case models.StatusPending, models.StatusActive:
			update.Status = &status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "status không hợp lệ"})
			return
		}
	}

	user, err := uc.accounts.AdminUpdate(c.Request.Context(), id, update)
	if err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy người dùng"})
			return
		}
		uc.logger.Error("admin update user failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật người dùng"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cập nhật người dùng thành công", "user": user})
}

// DELETE /api/admin/users/:id
// Xoá user kéo theo notebook của họ, slug được giải phóng.
func (uc *UserController) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id không hợp lệ"})
		return
	}

	if err := uc.accounts.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy người dùng"})
			return
		}
		uc.logger.Error("delete user failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xoá người dùng"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã xoá người dùng"})
}
