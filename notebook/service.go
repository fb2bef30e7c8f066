package notebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/alkemata/reasonreport-backend/models"
)

// Số lần chạy lại vòng EnsureUnique + Replace khi hai save đồng thời
// tranh nhau cùng một slug (unique index từ chối Replace).
const maxSaveRetries = 5

// Service điều phối toàn bộ vòng đời notebook: scaffold lúc tạo, cổng
// validate + cấp slug lúc lưu, phân giải id/slug lúc đọc, xoá giải phóng
// slug. Mọi phụ thuộc được tiêm lúc khởi động, không có state toàn cục.
type Service struct {
	store  Store
	slugs  *SlugRegistry
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		slugs:  NewSlugRegistry(store),
		logger: logger,
	}
}

// Slugs cho phép controller dùng chung bộ phân giải id/slug.
func (s *Service) Slugs() *SlugRegistry {
	return s.slugs
}

// Create lưu một notebook scaffold thuộc về author. Slug để rỗng cho tới
// lần lưu hợp lệ đầu tiên.
func (s *Service) Create(ctx context.Context, author *models.User) (*models.Notebook, error) {
	doc := Scaffold(author.Username)
	content, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal scaffold: %w", err)
	}

	nb := &models.Notebook{
		ID:            uuid.New(),
		AuthorID:      author.ID,
		Content:       string(content),
		SchemaVersion: SchemaVersion,
	}
	if err := s.store.Insert(ctx, nb); err != nil {
		return nil, err
	}
	return nb, nil
}

// Save thay thế toàn bộ document của notebook theo đúng giao thức:
// load → kiểm tra quyền (trước khi validate, không lộ nội dung cho người
// không có quyền) → extract metadata → cấp slug → replace nguyên tử.
// Mọi nhánh lỗi đều giữ nguyên bản hợp lệ đã lưu trước đó.
func (s *Service) Save(ctx context.Context, id uuid.UUID, rawDoc []byte, actor *models.User) (*models.Notebook, error) {
	nb, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(OpWrite, nb, actor) {
		s.logDenied("save", nb, actor)
		return nil, ErrForbidden
	}

	var doc Document
	if err := json.Unmarshal(rawDoc, &doc); err != nil {
		return nil, ErrInvalidDocument
	}
	Upgrade(&doc)

	meta, err := ExtractMetadata(&doc)
	if err != nil {
		return nil, err
	}

	content, err := json.Marshal(&doc)
	if err != nil {
		return nil, ErrInvalidDocument
	}

	candidate := DeriveSlug(meta.Title)
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		finalSlug := nb.Slug
		// Tiêu đề không đổi thì giữ nguyên slug cũ, kể cả slug có suffix.
		if !slugDerivesFrom(nb.Slug, candidate) {
			finalSlug, err = s.slugs.EnsureUnique(ctx, candidate, nb.ID)
			if err != nil {
				return nil, err
			}
		}

		nb.Slug = finalSlug
		nb.Title = meta.Title
		nb.Author = meta.Author
		nb.Date = meta.Date
		nb.Summary = meta.Summary
		nb.Content = string(content)
		nb.SchemaVersion = SchemaVersion

		err = s.store.Replace(ctx, nb)
		if err == nil {
			return nb, nil
		}
		if !errors.Is(err, ErrSlugTaken) {
			return nil, err
		}
		// Một save khác vừa chiếm slug này giữa lúc quét và lúc ghi -
		// chạy lại vòng suffix trên trạng thái mới.
		s.logger.Warn("slug conflict, retrying",
			slog.String("notebook_id", nb.ID.String()),
			slog.String("slug", finalSlug),
			slog.Int("attempt", attempt+1))
		nb.Slug = ""
	}
	return nil, ErrConflict
}

// Fetch phân giải identifier (id hoặc slug) rồi áp quyền đọc. Trang đã
// publish là công khai; trường hợp bị từ chối trả về ErrNotFound để bên
// ngoài không phân biệt được "không tồn tại" với "không được xem".
func (s *Service) Fetch(ctx context.Context, identifier string, actor *models.User) (*models.Notebook, error) {
	nb, err := s.slugs.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if !CanAccess(OpRead, nb, actor) {
		s.logDenied("fetch", nb, actor)
		return nil, ErrNotFound
	}
	return nb, nil
}

// FetchOwned trả về notebook kèm document thô cho editor, chỉ tác giả
// hoặc admin. Từ chối cũng trả ErrNotFound (cùng chính sách chống lộ
// thông tin với Fetch).
func (s *Service) FetchOwned(ctx context.Context, identifier string, actor *models.User) (*models.Notebook, error) {
	nb, err := s.slugs.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if !CanAccess(OpWrite, nb, actor) {
		s.logDenied("query", nb, actor)
		return nil, ErrNotFound
	}
	return nb, nil
}

// Delete xoá notebook và qua đó giải phóng slug. Xoá lần hai trả
// ErrNotFound (idempotent-safe).
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor *models.User) error {
	nb, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanAccess(OpDelete, nb, actor) {
		s.logDenied("delete", nb, actor)
		return ErrForbidden
	}
	ok, err := s.store.Delete(ctx, nb.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Document parse Content đã lưu và nâng cấp schema nếu cần.
func (s *Service) Document(nb *models.Notebook) (*Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(nb.Content), &doc); err != nil {
		return nil, ErrInvalidDocument
	}
	doc.SchemaVersion = nb.SchemaVersion
	Upgrade(&doc)
	return &doc, nil
}

func (s *Service) logDenied(op string, nb *models.Notebook, actor *models.User) {
	actorID := "anonymous"
	if actor != nil {
		actorID = actor.ID.String()
	}
	s.logger.Warn("access denied",
		slog.String("op", op),
		slog.String("notebook_id", nb.ID.String()),
		slog.String("actor", actorID))
}

// slugDerivesFrom kiểm tra slug hiện tại có sinh từ cùng candidate không
// (bằng nhau hoặc dạng candidate-N).
func slugDerivesFrom(current, candidate string) bool {
	if current == "" {
		return false
	}
	if current == candidate {
		return true
	}
	rest, ok := strings.CutPrefix(current, candidate+"-")
	if !ok || rest == "" {
		return false
	}
	for _, ch := range rest {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
