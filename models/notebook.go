package models

import (
	"time"

	"github.com/google/uuid"
)

// Notebook là trang cá nhân của một user: nội dung gốc nằm trong Content
// (JSON của toàn bộ document), các trường Title/Author/Date/Summary chỉ là
// chỉ mục được tính lại từ các cell gắn tag mỗi lần lưu.
type Notebook struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	User     User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;" json:"-"`

	// Slug rỗng cho tới lần lưu hợp lệ đầu tiên, sau đó là duy nhất toàn hệ thống.
	Slug    string `gorm:"size:255;uniqueIndex:idx_notebooks_slug,where:slug <> ''" json:"slug"`
	Title   string `gorm:"size:255" json:"title"`
	Author  string `gorm:"size:255" json:"author"`
	Date    string `gorm:"size:100" json:"date"`
	Summary string `gorm:"type:text" json:"summary"`

	Content       string `gorm:"type:jsonb;not null" json:"content"`
	SchemaVersion int    `gorm:"not null;default:1" json:"schema_version"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
