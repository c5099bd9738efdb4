package wikimedia

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/user/pageview-ranker/internal/entity"
	"github.com/user/pageview-ranker/internal/repository"
)

// DumpRepoImpl downloads hourly pageview dumps over HTTPS into a temp directory.
type DumpRepoImpl struct {
	client      *http.Client
	urlTemplate string
	tempDir     string
	logger      *zap.Logger
}

// NewDumpRepo creates a dump downloader. timeout bounds connecting and each
// read separately; a slow but steady transfer is never cut off.
func NewDumpRepo(urlTemplate, tempDir string, timeout time.Duration, insecureSkipVerify bool, logger *zap.Logger) *DumpRepoImpl {
	return &DumpRepoImpl{
		client:      NewHTTPClient(timeout, insecureSkipVerify),
		urlTemplate: urlTemplate,
		tempDir:     tempDir,
		logger:      logger,
	}
}

// NewHTTPClient returns a client dedicated to dump downloads. Certificate
// verification can be switched off for this client only; the process-wide
// default transport is left alone.
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &readTimeoutConn{Conn: conn, timeout: timeout}, nil
		},
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: insecureSkipVerify},
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          2,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// readTimeoutConn fails a Read that receives nothing within timeout.
type readTimeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readTimeoutConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

// Fetch downloads the dump for w. The returned path names the temp file even
// on failure, when it may be missing or truncated.
func (r *DumpRepoImpl) Fetch(ctx context.Context, w entity.HourWindow) (string, error) {
	url := w.DumpURL(r.urlTemplate)
	path := w.TempPath(r.tempDir)

	start := time.Now()
	n, err := r.download(ctx, url, path)
	if err != nil {
		return path, fmt.Errorf("%w: %s to %s: %v", repository.ErrDownloadFailed, url, path, err)
	}

	r.logger.Info("downloaded dump",
		zap.String("url", url),
		zap.String("path", path),
		zap.Int64("bytes", n),
		zap.Duration("duration", time.Since(start)),
	)
	return path, nil
}

func (r *DumpRepoImpl) download(ctx context.Context, url, path string) (int64, error) {
	if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "pageview-ranker/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, copyErr := io.Copy(f, resp.Body)
	if err := f.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	return n, copyErr
}

// Remove deletes a downloaded dump.
func (r *DumpRepoImpl) Remove(path string) error {
	return os.Remove(path)
}
