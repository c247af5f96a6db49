package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"face-service/pkg/config"
)

// BunnyStorage talks to the Bunny.net Storage API. Keys map directly to
// object paths inside the configured storage zone.
type BunnyStorage struct {
	client    *http.Client
	baseURL   string
	zone      string
	accessKey string
}

func NewBunnyStorage(cfg *config.StorageConfig) *BunnyStorage {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://storage.bunnycdn.com"
	}
	return &BunnyStorage{
		client:    &http.Client{Timeout: 60 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		zone:      cfg.StorageZone,
		accessKey: cfg.AccessKey,
	}
}

func (s *BunnyStorage) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.zone, strings.TrimLeft(key, "/"))
}

func (s *BunnyStorage) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("AccessKey", s.accessKey)
	return s.client.Do(req)
}

func (s *BunnyStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(key), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload %s: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}

func (s *BunnyStorage) Download(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(key), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %d", key, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *BunnyStorage) Exists(ctx context.Context, key string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.objectURL(key), nil)
	if err != nil {
		return false, err
	}
	resp, err := s.do(req)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: unexpected status %d", key, resp.StatusCode)
	}
}

type bunnyListEntry struct {
	ObjectName  string `json:"ObjectName"`
	Path        string `json:"Path"`
	IsDirectory bool   `json:"IsDirectory"`
}

// List walks the directory at prefix. Bunny lists one level at a time, so
// subdirectories are followed recursively.
func (s *BunnyStorage) List(ctx context.Context, prefix string) ([]string, error) {
	dir := strings.TrimLeft(prefix, "/")
	if dir != "" && !strings.HasSuffix(dir, "/") {
		dir += "/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/%s", s.baseURL, s.zone, dir), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s: unexpected status %d", prefix, resp.StatusCode)
	}

	var entries []bunnyListEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDirectory {
			sub, err := s.List(ctx, dir+e.ObjectName)
			if err != nil {
				return nil, err
			}
			keys = append(keys, sub...)
			continue
		}
		keys = append(keys, dir+e.ObjectName)
	}
	return keys, nil
}

func (s *BunnyStorage) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(key), nil)
	if err != nil {
		return err
	}
	resp, err := s.do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete %s: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}
