package notebook

import "github.com/alkemata/reasonreport-backend/models"

type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// CanAccess là hàm quyết định thuần: đọc mở cho mọi người (trang công
// khai), ghi/xoá chỉ cho tác giả hoặc admin. Các role editor/advanced tồn
// tại trên User nhưng chưa được policy này tiêu thụ.
func CanAccess(op Operation, nb *models.Notebook, actor *models.User) bool {
	switch op {
	case OpRead:
		return true
	case OpWrite, OpDelete:
		if actor == nil {
			return false
		}
		return actor.ID == nb.AuthorID || actor.Role == models.RoleAdmin
	}
	return false
}
