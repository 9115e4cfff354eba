// Package client provides a Go client for the boxshare API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alphabot-ai/boxshare/internal/model"
)

const adminHeader = "X-Admin-Secret"

// Client is a boxshare API client.
type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	AdminSecret string
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("boxshare: %d %s", e.Status, e.Message)
}

// New creates a new boxshare client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload describes a new box. File is optional for code boxes.
type Upload struct {
	Title    string
	Author   string
	Type     model.BoxType
	Code     string
	FileName string
	File     io.Reader
}

// Upload creates a box and returns it as stored by the server.
func (c *Client) Upload(ctx context.Context, in Upload) (*model.Box, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := [][2]string{
		{"title", in.Title},
		{"author", in.Author},
		{"type", string(in.Type)},
		{"code", in.Code},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	if in.File != nil {
		name := in.FileName
		if name == "" {
			name = "upload"
		}
		fw, err := mw.CreateFormFile("file", name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(fw, in.File); err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result struct {
		Success bool      `json:"success"`
		Box     model.Box `json:"box"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result.Box, nil
}

// RandomBox fetches a random unflagged box.
func (c *Client) RandomBox(ctx context.Context) (*model.Box, error) {
	var box model.Box
	if err := c.call(ctx, http.MethodGet, "/api/box", false, &box); err != nil {
		return nil, err
	}
	return &box, nil
}

// GetBox fetches an unflagged box by id.
func (c *Client) GetBox(ctx context.Context, id string) (*model.Box, error) {
	var box model.Box
	if err := c.call(ctx, http.MethodGet, "/api/box/"+url.PathEscape(id), false, &box); err != nil {
		return nil, err
	}
	return &box, nil
}

// Flag marks a box for review.
func (c *Client) Flag(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, "/api/flag/"+url.PathEscape(id), false, nil)
}

// ListFlagged returns the boxes awaiting review. Requires AdminSecret.
func (c *Client) ListFlagged(ctx context.Context) ([]model.Box, error) {
	var boxes []model.Box
	if err := c.call(ctx, http.MethodGet, "/api/admin/flags", true, &boxes); err != nil {
		return nil, err
	}
	return boxes, nil
}

// Unflag clears the flag on a box. Requires AdminSecret.
func (c *Client) Unflag(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, "/api/admin/unflag/"+url.PathEscape(id), true, nil)
}

// Delete removes a box and its asset. Requires AdminSecret.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/admin/delete/"+url.PathEscape(id), true, nil)
}

// Stats returns collection counters.
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.call(ctx, http.MethodGet, "/api/stats", false, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) call(ctx context.Context, method, path string, admin bool, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if admin {
		req.Header.Set(adminHeader, c.AdminSecret)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
