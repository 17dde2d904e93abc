package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// GeminiClient talks to the Gemini REST API: File Search stores, file uploads and
// grounded generateContent.
type GeminiClient struct {
	apiKey string
	model  string
	http   *resty.Client
}

type Operation struct {
	Name     string         `json:"name"`
	Done     bool           `json:"done"`
	Error    *OperationErr  `json:"error,omitempty"`
	Response map[string]any `json:"response,omitempty"`
}

type OperationErr struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *OperationErr) Error() string {
	return fmt.Sprintf("operation failed (%d): %s", e.Code, e.Message)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type fileSearchTool struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames"`
}

type tool struct {
	FileSearch *fileSearchTool `json:"fileSearch,omitempty"`
}

type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Tools             []tool    `json:"tools,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

func NewGeminiClient(baseURL, apiKey, model string, timeout time.Duration) *GeminiClient {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("x-goog-api-key", apiKey).
		SetTimeout(timeout)

	return &GeminiClient{apiKey: apiKey, model: model, http: httpClient}
}

func (c *GeminiClient) Model() string { return c.model }

func (c *GeminiClient) checkKey() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return errors.New("gemini: api key is required")
	}
	return nil
}

// CreateStore provisions a File Search store and returns its resource name.
func (c *GeminiClient) CreateStore(ctx context.Context, displayName string) (string, error) {
	if err := c.checkKey(); err != nil {
		return "", err
	}
	var out struct {
		Name string `json:"name"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"displayName": displayName}).
		SetResult(&out).
		Post("/v1beta/fileSearchStores")
	if err != nil {
		return "", fmt.Errorf("gemini create store: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini create store (%d): %s", resp.StatusCode(), resp.String())
	}
	if out.Name == "" {
		return "", errors.New("gemini create store: empty store name")
	}
	return out.Name, nil
}

// UploadFile streams size bytes from r through the resumable upload protocol and
// returns the file's resource name.
func (c *GeminiClient) UploadFile(ctx context.Context, r io.Reader, size int64, displayName, mimeType string) (string, error) {
	if err := c.checkKey(); err != nil {
		return "", err
	}
	start, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Goog-Upload-Protocol", "resumable").
		SetHeader("X-Goog-Upload-Command", "start").
		SetHeader("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(size, 10)).
		SetHeader("X-Goog-Upload-Header-Content-Type", mimeType).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"file": map[string]string{"displayName": displayName}}).
		Post("/upload/v1beta/files")
	if err != nil {
		return "", fmt.Errorf("gemini upload start: %w", err)
	}
	if start.IsError() {
		return "", fmt.Errorf("gemini upload start (%d): %s", start.StatusCode(), start.String())
	}
	uploadURL := start.Header().Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return "", errors.New("gemini upload start: missing upload url")
	}

	var out struct {
		File struct {
			Name string `json:"name"`
		} `json:"file"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Goog-Upload-Command", "upload, finalize").
		SetHeader("X-Goog-Upload-Offset", "0").
		SetHeader("Content-Type", mimeType).
		SetBody(r).
		SetResult(&out).
		Post(uploadURL)
	if err != nil {
		return "", fmt.Errorf("gemini upload: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini upload (%d): %s", resp.StatusCode(), resp.String())
	}
	if out.File.Name == "" {
		return "", errors.New("gemini upload: empty file name")
	}
	return out.File.Name, nil
}

// ImportFile starts indexing fileName into store and returns the long-running operation.
func (c *GeminiClient) ImportFile(ctx context.Context, store, fileName string) (*Operation, error) {
	if err := c.checkKey(); err != nil {
		return nil, err
	}
	var op Operation
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"fileName": fileName}).
		SetResult(&op).
		Post("/v1beta/" + store + ":importFile")
	if err != nil {
		return nil, fmt.Errorf("gemini import: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gemini import (%d): %s", resp.StatusCode(), resp.String())
	}
	return &op, nil
}

func (c *GeminiClient) GetOperation(ctx context.Context, name string) (*Operation, error) {
	var op Operation
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&op).
		Get("/v1beta/" + name)
	if err != nil {
		return nil, fmt.Errorf("gemini get operation: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gemini get operation (%d): %s", resp.StatusCode(), resp.String())
	}
	return &op, nil
}

// DeleteFile removes an uploaded file. Indexed chunks already imported into a store
// are not guaranteed to disappear with it.
func (c *GeminiClient) DeleteFile(ctx context.Context, fileName string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/v1beta/" + fileName)
	if err != nil {
		return fmt.Errorf("gemini delete file: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("gemini delete file (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// GenerateContent asks the model for an answer grounded on one File Search store.
// An empty string with a nil error means the model produced no candidate text.
func (c *GeminiClient) GenerateContent(ctx context.Context, query, store, instruction string) (string, error) {
	if err := c.checkKey(); err != nil {
		return "", err
	}
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: query}}}},
	}
	if instruction != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: instruction}}}
	}
	if store != "" {
		req.Tools = []tool{{FileSearch: &fileSearchTool{FileSearchStoreNames: []string{store}}}}
	}

	var out generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post("/v1beta/models/" + c.model + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini generate (%d): %s", resp.StatusCode(), resp.String())
	}
	if len(out.Candidates) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
