// Package docparse extracts plain text from uploaded study material.
// PDF and Office formats go to an external extraction service over
// HTTP; plain text passes through locally.
package docparse

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// Parser turns an uploaded file into plain text suitable for prompt
// context.
type Parser interface {
	Parse(ctx context.Context, filename string, data []byte) (string, error)
}

// Service parses documents via an external extraction endpoint. Plain
// text files never leave the process.
type Service struct {
	endpoint string
	client   *http.Client
}

func New(endpoint string) *Service {
	return &Service{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *Service) Parse(ctx context.Context, filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return string(data), nil
	}
	if s.endpoint == "" {
		return "", fmt.Errorf("parse %s: no extraction endpoint configured", filename)
	}
	return s.parseRemote(ctx, filename, data)
}

func (s *Service) parseRemote(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("parse %s: extraction service returned %d: %s",
			filename, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	extracted := strings.TrimSpace(string(text))
	if extracted == "" {
		return "", fmt.Errorf("parse %s: no text extracted", filename)
	}
	return extracted, nil
}
