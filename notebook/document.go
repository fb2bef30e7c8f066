package notebook

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Các loại cell hỗ trợ (theo định dạng notebook chuẩn)
const (
	CellMarkdown = "markdown"
	CellRaw      = "raw"
	CellCode     = "code"
)

// Giá trị hợp lệ của metadata["type"], đánh dấu cell mang metadata của trang
const (
	FieldTitle   = "title"
	FieldAuthor  = "author"
	FieldDate    = "date"
	FieldSummary = "summary"
)

// SchemaVersion hiện tại của document. Bản ghi cũ (version 0) dùng
// cell markdown dạng "<!-- title: ... -->" và được nâng cấp qua Upgrade.
const SchemaVersion = 1

// Summary không bắt buộc, xem DESIGN.md
var requiredFields = []string{FieldTitle, FieldAuthor, FieldDate}

// MultilineSource chấp nhận cả string lẫn []string khi decode
// (các editor notebook gửi source theo cả hai dạng).
type MultilineSource []string

func (s *MultilineSource) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = MultilineSource{single}
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("source must be a string or an array of strings")
	}
	*s = MultilineSource(lines)
	return nil
}

func (s MultilineSource) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(s))
}

// Text gộp source nhiều dòng thành một dòng, bỏ khoảng trắng thừa ở hai đầu.
func (s MultilineSource) Text() string {
	fields := strings.Fields(strings.Join(s, "\n"))
	return strings.Join(fields, " ")
}

type Cell struct {
	Type     string         `json:"cell_type"`
	Source   MultilineSource `json:"source"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FieldTag trả về giá trị metadata["type"] nếu cell được gắn tag metadata
// hợp lệ, ngược lại trả về chuỗi rỗng (cell nội dung thường).
func (c Cell) FieldTag() string {
	if c.Metadata == nil {
		return ""
	}
	tag, _ := c.Metadata["type"].(string)
	switch tag {
	case FieldTitle, FieldAuthor, FieldDate, FieldSummary:
		return tag
	}
	return ""
}

type Document struct {
	SchemaVersion int            `json:"schema_version"`
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Metadata là bốn trường ngữ nghĩa rút ra từ các cell gắn tag.
type Metadata struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

// Scaffold tạo document mới với cell placeholder cho từng trường bắt buộc.
// Cell author và date được điền sẵn giá trị thật để document hợp lệ ngay
// sau khi user chỉ sửa tiêu đề.
func Scaffold(authorID string) *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		Cells: []Cell{
			{
				Type:     CellMarkdown,
				Source:   MultilineSource{"Please enter the title here"},
				Metadata: map[string]any{"type": FieldTitle},
			},
			{
				Type:     CellMarkdown,
				Source:   MultilineSource{authorID},
				Metadata: map[string]any{"type": FieldAuthor},
			},
			{
				Type:     CellMarkdown,
				Source:   MultilineSource{time.Now().UTC().Format("2006-01-02")},
				Metadata: map[string]any{"type": FieldDate},
			},
			{
				Type:     CellMarkdown,
				Source:   MultilineSource{"Please enter a short summary here"},
				Metadata: map[string]any{"type": FieldSummary},
			},
		},
	}
}

// ExtractMetadata quét toàn bộ cell và rút ra bốn trường ngữ nghĩa.
// Nếu một trường có nhiều cell thì cell cuối cùng thắng. Trả về
// *ValidationError liệt kê ĐỦ các trường bắt buộc bị thiếu hoặc rỗng -
// đây là cổng kiểm tra duy nhất trước khi lưu.
func ExtractMetadata(doc *Document) (*Metadata, error) {
	values := map[string]string{}
	for _, cell := range doc.Cells {
		if tag := cell.FieldTag(); tag != "" {
			values[tag] = cell.Source.Text()
		}
	}

	var missing []string
	for _, field := range requiredFields {
		if values[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	return &Metadata{
		Title:   values[FieldTitle],
		Author:  values[FieldAuthor],
		Date:    values[FieldDate],
		Summary: values[FieldSummary],
	}, nil
}

// Bản ghi version 0 đánh dấu metadata bằng comment HTML trong cell markdown.
var legacyTagPattern = regexp.MustCompile(`(?s)^<!--\s*(title|author|date|summary)\s*:\s*(.*?)\s*-->$`)

// Upgrade nâng document cũ lên schema hiện tại. Document đã đúng version
// được trả về nguyên vẹn.
func Upgrade(doc *Document) {
	if doc.SchemaVersion >= SchemaVersion {
		return
	}
	for i, cell := range doc.Cells {
		if cell.Type != CellMarkdown || cell.FieldTag() != "" {
			continue
		}
		m := legacyTagPattern.FindStringSubmatch(strings.TrimSpace(strings.Join(cell.Source, "\n")))
		if m == nil {
			continue
		}
		if doc.Cells[i].Metadata == nil {
			doc.Cells[i].Metadata = map[string]any{}
		}
		doc.Cells[i].Metadata["type"] = m[1]
		doc.Cells[i].Source = MultilineSource{m[2]}
	}
	doc.SchemaVersion = SchemaVersion
}
