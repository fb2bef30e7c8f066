package notebook

import (
	"errors"
	"fmt"
	"strings"
)

// Các lỗi nghiệp vụ mà controller ánh xạ sang mã HTTP. Lỗi lập trình /
// hạ tầng đi đường khác (bọc bằng ErrStorageUnavailable hoặc trả thẳng).
var (
	ErrNotFound           = errors.New("notebook not found")
	ErrForbidden          = errors.New("operation not permitted")
	ErrUnauthenticated    = errors.New("missing or invalid credential")
	ErrInvalidDocument    = errors.New("document is not valid notebook JSON")
	ErrSlugTaken          = errors.New("slug already owned by another notebook")
	ErrConflict           = errors.New("slug conflict not resolved within retry budget")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError liệt kê mọi trường bắt buộc bị thiếu sau khi trim,
// không chỉ trường đầu tiên.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}
