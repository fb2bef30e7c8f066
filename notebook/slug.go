package notebook

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/alkemata/reasonreport-backend/models"
)

// Số suffix tối đa thử trước khi bỏ cuộc với ErrConflict.
const maxSlugAttempts = 50

// DeriveSlug sinh slug URL-safe từ tiêu đề: chữ thường, bỏ dấu, nối bằng
// gạch ngang. Cùng tiêu đề luôn cho cùng slug.
func DeriveSlug(title string) string {
	return slug.Make(title)
}

// SlugRegistry giữ tính duy nhất của slug và phân giải định danh công khai.
type SlugRegistry struct {
	store Store
}

func NewSlugRegistry(store Store) *SlugRegistry {
	return &SlugRegistry{store: store}
}

// EnsureUnique trả về candidate nếu chưa ai giữ hoặc chính notebook selfID
// đang giữ (lưu lại cùng tiêu đề là no-op). Nếu notebook khác giữ thì thử
// candidate-1, candidate-2, ... Tính duy nhất cuối cùng vẫn do unique index
// của storage đảm bảo, caller phải retry khi Replace trả ErrSlugTaken.
func (r *SlugRegistry) EnsureUnique(ctx context.Context, candidate string, selfID uuid.UUID) (string, error) {
	for i := 0; i < maxSlugAttempts; i++ {
		s := candidate
		if i > 0 {
			s = fmt.Sprintf("%s-%d", candidate, i)
		}
		owner, err := r.store.FindBySlug(ctx, s)
		if errors.Is(err, ErrNotFound) {
			return s, nil
		}
		if err != nil {
			return "", err
		}
		if owner.ID == selfID {
			return s, nil
		}
	}
	return "", ErrConflict
}

// Resolve tra notebook theo id nội bộ nếu identifier đúng định dạng UUID,
// ngược lại tra theo slug. Chỉ một trong hai nhánh được thử, tránh nhập
// nhằng khi slug tình cờ giống một id.
func (r *SlugRegistry) Resolve(ctx context.Context, identifier string) (*models.Notebook, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		return r.store.FindByID(ctx, id)
	}
	return r.store.FindBySlug(ctx, identifier)
}
