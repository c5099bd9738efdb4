package wikimedia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/user/pageview-ranker/internal/entity"
	"github.com/user/pageview-ranker/internal/repository"
)

const testTemplate = "/other/pageviews/#{year}/#{year}-#{month}/pageviews-#{isoDate}-#{hhmmss}.gz"

var testHour = entity.NewHourWindow(time.Date(2020, 1, 2, 5, 0, 0, 0, time.UTC))

func TestFetchDownloadsToTempPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	tempDir := filepath.Join(t.TempDir(), "temp")
	repo := NewDumpRepo(srv.URL+testTemplate, tempDir, time.Second, true, zap.NewNop())

	path, err := repo.Fetch(context.Background(), testHour)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if want := "/other/pageviews/2020/2020-01/pageviews-20200102-050000.gz"; gotPath != want {
		t.Errorf("requested %q, want %q", gotPath, want)
	}
	if want := filepath.Join(tempDir, "20200102-05.gz"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "payload" {
		t.Errorf("content = %q", b)
	}

	if err := repo.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present after Remove: %v", err)
	}
}

func TestFetchVerifiesCertificatesWhenAsked(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	repo := NewDumpRepo(srv.URL+testTemplate, t.TempDir(), time.Second, false, zap.NewNop())
	path, err := repo.Fetch(context.Background(), testHour)
	if !errors.Is(err, repository.ErrDownloadFailed) {
		t.Fatalf("err = %v, want ErrDownloadFailed", err)
	}
	if path == "" {
		t.Error("path must be returned on failure")
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	defer srv.Close()

	tempDir := t.TempDir()
	repo := NewDumpRepo(srv.URL+testTemplate, tempDir, time.Second, true, zap.NewNop())
	path, err := repo.Fetch(context.Background(), testHour)
	if !errors.Is(err, repository.ErrDownloadFailed) {
		t.Fatalf("err = %v, want ErrDownloadFailed", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("no file should be created for a 404, stat err = %v", statErr)
	}
}

func TestFetchReadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(release)

	repo := NewDumpRepo(srv.URL+testTemplate, t.TempDir(), 200*time.Millisecond, true, zap.NewNop())
	start := time.Now()
	_, err := repo.Fetch(context.Background(), testHour)
	if !errors.Is(err, repository.ErrDownloadFailed) {
		t.Fatalf("err = %v, want ErrDownloadFailed", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("read timeout not applied, took %v", elapsed)
	}
}
