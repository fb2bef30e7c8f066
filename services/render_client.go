package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alkemata/reasonreport-backend/notebook"
)

// RenderClient gọi service chuyển notebook sang HTML (nbconvert chạy
// riêng). Với core đây là hàm thuần: document hợp lệ vào, HTML ra.
type RenderClient struct {
	baseURL string
	client  *http.Client
}

func NewRenderClient() *RenderClient {
	return &RenderClient{
		baseURL: os.Getenv("RENDERER_URL"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type renderResponse struct {
	HTML string `json:"html"`
}

// Render gửi document JSON tới renderer và nhận về HTML.
func (r *RenderClient) Render(ctx context.Context, doc *notebook.Document) (string, error) {
	if r.baseURL == "" {
		return "", fmt.Errorf("RENDERER_URL is not set")
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call renderer: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("renderer failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %v", err)
	}

	var result renderResponse
	if err := json.Unmarshal(respData, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %v", err)
	}
	return result.HTML, nil
}
