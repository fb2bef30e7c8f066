package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alkemata/reasonreport-backend/accounts"
	"github.com/alkemata/reasonreport-backend/utils"
)

// ====== INPUT STRUCTS ======
type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=150"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type PasswordResetRequestInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmInput struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type AuthController struct {
	accounts *accounts.Service
	logger   *slog.Logger
}

func NewAuthController(accounts *accounts.Service, logger *slog.Logger) *AuthController {
	return &AuthController{accounts: accounts, logger: logger}
}

// POST /api/auth/register
// Đăng ký đồng thời scaffold notebook cá nhân cho user mới.
func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, nb, err := ac.accounts.Register(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tên đăng nhập đã được sử dụng"})
			return
		}
		ac.logger.Error("register failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi tạo người dùng"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Đăng ký thành công",
		"user":        user,
		"notebook_id": nb.ID,
	})
}

// POST /api/auth/login
// Trả token trong body và đồng thời set cookie jwt_token cho frontend cũ.
func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.accounts.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tên đăng nhập hoặc mật khẩu không đúng"})
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), string(user.Role))
	if err != nil {
		ac.logger.Error("generate token failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo token"})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("jwt_token", token, int(utils.TokenTTL.Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"message": "Đăng nhập thành công",
		"token":   token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	c.SetCookie("jwt_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Đã đăng xuất"})
}

// POST /api/auth/password-reset
// Luôn trả 200 để không lộ username nào tồn tại.
func (ac *AuthController) RequestPasswordReset(c *gin.Context) {
	var input PasswordResetRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reset, user, err := ac.accounts.CreatePasswordReset(c.Request.Context(), input.Username)
	if err != nil {
		if !errors.Is(err, accounts.ErrUserNotFound) {
			ac.logger.Error("create password reset failed", slog.String("error", err.Error()))
		}
		c.JSON(http.StatusOK, gin.H{"message": "Nếu tài khoản tồn tại, email hướng dẫn đã được gửi"})
		return
	}

	body := fmt.Sprintf(
		"<p>Xin chào %s,</p><p>Dùng mã sau để đặt lại mật khẩu (hết hạn sau 1 giờ):</p><p><b>%s</b></p>",
		user.Username, reset.Token,
	)
	if err := utils.SendEmail(input.Email, "Đặt lại mật khẩu", body); err != nil {
		ac.logger.Error("send reset email failed", slog.String("error", err.Error()))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Nếu tài khoản tồn tại, email hướng dẫn đã được gửi"})
}

// POST /api/auth/password-reset/confirm
func (ac *AuthController) ConfirmPasswordReset(c *gin.Context) {
	var input PasswordResetConfirmInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ac.accounts.ConsumePasswordReset(c.Request.Context(), input.Token, input.Password); err != nil {
		if errors.Is(err, accounts.ErrResetInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Mã đặt lại không hợp lệ hoặc đã hết hạn"})
			return
		}
		ac.logger.Error("consume password reset failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đặt lại mật khẩu"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Đặt lại mật khẩu thành công"})
}
