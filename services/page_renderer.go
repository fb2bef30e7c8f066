package services

import (
	"context"

	"github.com/alkemata/reasonreport-backend/models"
	"github.com/alkemata/reasonreport-backend/notebook"
)

// PageRenderer ghép renderer ngoài với cache: trang công khai đọc nhiều
// ghi ít nên HTML được cache theo slug và xoá khi save/delete.
type PageRenderer struct {
	client *RenderClient
	cache  *RenderCache
}

func NewPageRenderer(client *RenderClient, cache *RenderCache) *PageRenderer {
	return &PageRenderer{client: client, cache: cache}
}

func (p *PageRenderer) RenderNotebook(ctx context.Context, nb *models.Notebook, doc *notebook.Document) (string, error) {
	if html, ok := p.cache.Get(ctx, nb.Slug); ok {
		return html, nil
	}
	html, err := p.client.Render(ctx, doc)
	if err != nil {
		return "", err
	}
	p.cache.Set(ctx, nb.Slug, html)
	return html, nil
}

func (p *PageRenderer) Invalidate(ctx context.Context, slugs ...string) {
	p.cache.Invalidate(ctx, slugs...)
}
