package notebook

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alkemata/reasonreport-backend/models"
)

// Store là collaborator lưu trữ của Service. Save dùng ngữ nghĩa thay thế
// toàn bộ document; Replace phải trả ErrSlugTaken khi vi phạm unique index
// trên slug để vòng retry trong Save hoạt động.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Notebook, error)
	FindBySlug(ctx context.Context, slug string) (*models.Notebook, error)
	Insert(ctx context.Context, nb *models.Notebook) error
	Replace(ctx context.Context, nb *models.Notebook) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// GormStore cài Store trên PostgreSQL qua gorm. Cần gorm.Config có
// TranslateError để vi phạm unique index thành gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Notebook, error) {
	var nb models.Notebook
	err := s.db.WithContext(ctx).First(&nb, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return &nb, nil
}

func (s *GormStore) FindBySlug(ctx context.Context, slug string) (*models.Notebook, error) {
	var nb models.Notebook
	err := s.db.WithContext(ctx).First(&nb, "slug = ? AND slug <> ''", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return &nb, nil
}

func (s *GormStore) Insert(ctx context.Context, nb *models.Notebook) error {
	if err := s.db.WithContext(ctx).Create(nb).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *GormStore) Replace(ctx context.Context, nb *models.Notebook) error {
	err := s.db.WithContext(ctx).Save(nb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSlugTaken
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.Notebook{}, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageUnavailable, res.Error)
	}
	return res.RowsAffected > 0, nil
}
