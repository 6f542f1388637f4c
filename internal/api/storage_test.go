package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/verne/pkg/lifecycle"
	"github.com/JaimeStill/verne/pkg/routes"
	"github.com/JaimeStill/verne/pkg/storage"
)

type memStore struct {
	blobs      map[string]storage.BlobInfo
	data       map[string][]byte
	lastPrefix string
}

func (m *memStore) Start(*lifecycle.Coordinator) error { return nil }
func (m *memStore) Ready() bool                        { return true }

func (m *memStore) Upload(_ context.Context, key string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.data[key] = data
	m.blobs[key] = storage.BlobInfo{Key: key, ContentType: contentType, Size: int64(len(data)), LastModified: time.Now()}
	return nil
}

func (m *memStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	delete(m.blobs, key)
	return nil
}

func (m *memStore) Find(_ context.Context, key string) (*storage.BlobInfo, error) {
	if strings.Contains(key, "..") {
		return nil, storage.ErrInvalidKey
	}
	info, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &info, nil
}

func (m *memStore) List(_ context.Context, prefix, _ string, _ int32) (*storage.ListResult, error) {
	m.lastPrefix = prefix
	result := &storage.ListResult{Blobs: []storage.BlobInfo{}}
	for k, info := range m.blobs {
		if strings.HasPrefix(k, prefix) {
			result.Blobs = append(result.Blobs, info)
		}
	}
	return result, nil
}

func storageMux(t *testing.T) (*http.ServeMux, *memStore) {
	t.Helper()

	store := &memStore{blobs: map[string]storage.BlobInfo{}, data: map[string][]byte{}}
	key := "imports/0b8f/ventas.csv"
	if err := store.Upload(t.Context(), key, strings.NewReader("producto;periodo\n"), "text/csv"); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	h := newStorageHandler(store, slog.New(slog.DiscardHandler), 50)
	routes.Register(mux, h.routes())
	return mux, store
}

func TestStorageList(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantPrefix string
	}{
		{"default prefix", "/storage", http.StatusOK, archivePrefix},
		{"explicit prefix", "/storage?prefix=imports/0b8f/", http.StatusOK, "imports/0b8f/"},
		{"invalid page size", "/storage?max_results=0", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, store := storageMux(t)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if store.lastPrefix != tt.wantPrefix {
				t.Errorf("prefix = %q, want %q", store.lastPrefix, tt.wantPrefix)
			}
		})
	}
}

func TestStorageFind(t *testing.T) {
	mux, _ := storageMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/storage/imports/0b8f/ventas.csv", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info storage.BlobInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Key != "imports/0b8f/ventas.csv" || info.ContentType != "text/csv" {
		t.Errorf("info = %+v", info)
	}
}

func TestStorageDownload(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"archived upload", "/storage/download/imports/0b8f/ventas.csv", http.StatusOK},
		{"missing", "/storage/download/imports/none.csv", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, _ := storageMux(t)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="ventas.csv"` {
				t.Errorf("Content-Disposition = %q", got)
			}
			if rec.Body.String() != "producto;periodo\n" {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}
