package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alkemata/reasonreport-backend/middleware"
	"github.com/alkemata/reasonreport-backend/notebook"
	"github.com/alkemata/reasonreport-backend/services"
	"github.com/alkemata/reasonreport-backend/ws"
)

type SaveNotebookInput struct {
	Notebook json.RawMessage `json:"notebook" binding:"required"`
}

type NotebookController struct {
	service  *notebook.Service
	renderer *services.PageRenderer
	hub      *ws.Hub
	logger   *slog.Logger
}

func NewNotebookController(service *notebook.Service, renderer *services.PageRenderer, hub *ws.Hub, logger *slog.Logger) *NotebookController {
	return &NotebookController{service: service, renderer: renderer, hub: hub, logger: logger}
}

// Ánh xạ lỗi nghiệp vụ của notebook.Service sang mã HTTP. Validation trả
// đủ danh sách trường thiếu để user sửa; lỗi hạ tầng là 503.
func (nc *NotebookController) respondError(c *gin.Context, err error) {
	var vErr *notebook.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Notebook thiếu trường bắt buộc",
			"missing_fields": vErr.Missing,
		})
	case errors.Is(err, notebook.ErrInvalidDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Notebook không đúng định dạng"})
	case errors.Is(err, notebook.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
	case errors.Is(err, notebook.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy notebook"})
	case errors.Is(err, notebook.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền thực hiện thao tác này"})
	case errors.Is(err, notebook.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Slug đang bị tranh chấp, vui lòng thử lại"})
	case errors.Is(err, notebook.ErrStorageUnavailable):
		nc.logger.Error("storage unavailable", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Hệ thống đang gặp sự cố, vui lòng thử lại sau"})
	default:
		nc.logger.Error("notebook operation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi không xác định"})
	}
}

// POST /api/notebooks
// Tạo notebook scaffold cho user hiện tại; slug rỗng tới lần lưu đầu tiên.
func (nc *NotebookController) CreateNotebook(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
		return
	}

	nb, err := nc.service.Create(c.Request.Context(), user)
	if err != nil {
		nc.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Tạo notebook thành công", "notebook": nb})
}

// PUT /api/notebooks/:id
// Thay thế toàn bộ document. Save bị từ chối không đụng tới bản đã lưu.
func (nc *NotebookController) SaveNotebook(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id không hợp lệ"})
		return
	}

	var input SaveNotebookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oldSlug := ""
	if existing, err := nc.service.FetchOwned(c.Request.Context(), id.String(), user); err == nil {
		oldSlug = existing.Slug
	}

	nb, err := nc.service.Save(c.Request.Context(), id, input.Notebook, user)
	if err != nil {
		var vErr *notebook.ValidationError
		if errors.As(err, &vErr) {
			nc.hub.SendSaveStatus(id.String(), "rejected", "", vErr.Error())
		}
		nc.respondError(c, err)
		return
	}

	// HTML cũ không còn đúng nữa
	nc.renderer.Invalidate(c.Request.Context(), oldSlug, nb.Slug)
	nc.hub.SendSaveStatus(nb.ID.String(), "saved", nb.Slug, "")
	if oldSlug != nb.Slug {
		nc.hub.BroadcastPublishedListChanged()
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lưu notebook thành công", "notebook": nb})
}

// GET /api/notebooks/query?id=...|slug=...
// Trả document thô cho editor, chỉ tác giả hoặc admin.
func (nc *NotebookController) QueryNotebook(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
		return
	}

	identifier := c.Query("id")
	if identifier == "" {
		identifier = c.Query("slug")
	}
	if identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cần truyền id hoặc slug"})
		return
	}

	nb, err := nc.service.FetchOwned(c.Request.Context(), identifier, user)
	if err != nil {
		nc.respondError(c, err)
		return
	}

	doc, err := nc.service.Document(nb)
	if err != nil {
		nc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notebook": nb, "document": doc})
}

// DELETE /api/notebooks/:id
// Xoá giải phóng slug; xoá lần hai trả 404.
func (nc *NotebookController) DeleteNotebook(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id không hợp lệ"})
		return
	}

	oldSlug := ""
	if existing, err := nc.service.FetchOwned(c.Request.Context(), id.String(), user); err == nil {
		oldSlug = existing.Slug
	}

	if err := nc.service.Delete(c.Request.Context(), id, user); err != nil {
		nc.respondError(c, err)
		return
	}

	nc.renderer.Invalidate(c.Request.Context(), oldSlug)
	nc.hub.BroadcastPublishedListChanged()
	c.JSON(http.StatusOK, gin.H{"message": "Đã xoá notebook"})
}

// GET /slug/:slug
// Trang công khai: render qua service ngoài, có cache theo slug.
func (nc *NotebookController) PublicBySlug(c *gin.Context) {
	nc.renderPublic(c, c.Param("slug"))
}

// GET /id/:id
// Có slug thì redirect sang URL chính tắc, chưa có thì render thẳng.
func (nc *NotebookController) PublicByID(c *gin.Context) {
	identifier := c.Param("id")
	user := middleware.CurrentUser(c)

	nb, err := nc.service.Fetch(c.Request.Context(), identifier, user)
	if err != nil {
		nc.respondError(c, err)
		return
	}
	if nb.Slug != "" {
		c.Redirect(http.StatusFound, "/slug/"+nb.Slug)
		return
	}
	nc.renderPublic(c, identifier)
}

func (nc *NotebookController) renderPublic(c *gin.Context, identifier string) {
	user := middleware.CurrentUser(c)

	nb, err := nc.service.Fetch(c.Request.Context(), identifier, user)
	if err != nil {
		nc.respondError(c, err)
		return
	}

	doc, err := nc.service.Document(nb)
	if err != nil {
		nc.respondError(c, err)
		return
	}

	html, err := nc.renderer.RenderNotebook(c.Request.Context(), nb, doc)
	if err != nil {
		nc.logger.Error("render failed",
			slog.String("notebook_id", nb.ID.String()),
			slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Không thể render trang"})
		return
	}

	isAuthor := user != nil && (user.ID == nb.AuthorID)
	c.Header("X-Notebook-Id", nb.ID.String())
	if isAuthor {
		c.Header("X-Is-Author", "true")
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
