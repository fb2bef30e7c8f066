package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/alkemata/reasonreport-backend/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // chỉ để phát triển, nên giới hạn ở production
	},
}

// gửi message dạng JSON qua WebSocket
func sendJSON(logger *slog.Logger, conn *websocket.Conn, data interface{}) {
	msg, err := json.Marshal(data)
	if err != nil {
		logger.Error("ws marshal failed", slog.String("error", err.Error()))
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		logger.Error("ws send failed", slog.String("error", err.Error()))
	}
}

// HandleNotebookWebSocket: editor đăng ký nhận trạng thái lưu của một notebook.
func HandleNotebookWebSocket(hub *Hub, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		notebookID := c.Param("id")
		token := c.Query("token")

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu token"})
			return
		}
		claims, err := utils.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Error("ws upgrade failed", slog.String("error", err.Error()))
			return
		}
		hub.Register(notebookID, conn)
		defer hub.Unregister(notebookID, conn)

		logger.Info("notebook ws connected",
			slog.String("notebook_id", notebookID),
			slog.String("user_id", claims.UserID))
		sendJSON(logger, conn, gin.H{"type": "connected", "message": "Connected to notebook " + notebookID})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}

// HandleGlobalWebSocket: kênh chung báo danh sách trang công khai thay đổi.
func HandleGlobalWebSocket(hub *Hub, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Error("ws upgrade failed", slog.String("error", err.Error()))
			return
		}
		hub.RegisterGlobal(conn)
		defer hub.UnregisterGlobal(conn)

		sendJSON(logger, conn, gin.H{"type": "connected", "message": "Connected to global WebSocket"})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
