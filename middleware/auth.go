package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alkemata/reasonreport-backend/models"
	"github.com/alkemata/reasonreport-backend/utils"
)

// UserLoader nạp user cho middleware, accounts.Service cài interface này.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// bearerToken lấy token từ Authorization header hoặc cookie jwt_token
// (frontend cũ dùng cookie).
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie("jwt_token"); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware xác thực token, nạp user và lưu vào context cho
// controller. Mọi trường hợp từ chối dùng chung một thông điệp, chi tiết
// chỉ ghi vào log.
func AuthMiddleware(users UserLoader, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
			c.Abort()
			return
		}

		claims, err := utils.VerifyToken(tokenString)
		if err != nil {
			logger.Info("token rejected", slog.String("reason", err.Error()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
			c.Abort()
			return
		}

		if user.Status == models.StatusPending {
			c.JSON(http.StatusForbidden, gin.H{"error": "Tài khoản chưa được kích hoạt"})
			c.Abort()
			return
		}

		// Lưu thông tin vào context để controller dùng
		c.Set("current_user", user)
		c.Set("user_id", user.ID.String())
		c.Set("role", string(user.Role))
		c.Next()
	}
}

// OptionalAuthMiddleware: có token hợp lệ thì nạp user, không có thì cho
// qua như khách ẩn danh. Dùng cho các trang công khai cần biết is_author.
func OptionalAuthMiddleware(users UserLoader, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := utils.VerifyToken(tokenString)
		if err != nil {
			// Token sai / hết hạn -> coi như anonymous
			c.Next()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.Next()
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.Next()
			return
		}

		c.Set("current_user", user)
		c.Set("user_id", user.ID.String())
		c.Set("role", string(user.Role))
		c.Next()
	}
}

// CurrentUser lấy user đã được AuthMiddleware/OptionalAuthMiddleware nạp.
func CurrentUser(c *gin.Context) *models.User {
	value, ok := c.Get("current_user")
	if !ok {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
