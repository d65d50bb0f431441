package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Resolver defaults.
const (
	defaultFetchTimeout = 60 * time.Second
	defaultMaxBytes     = 512 << 20

	dirPermissions  = 0750
	filePermissions = 0600

	maxNameLength = 48
)

// DiskResolver downloads http(s) sources into a cache directory and checks
// that local paths exist.
type DiskResolver struct {
	dir      string
	client   *http.Client
	maxBytes int64
}

// NewDiskResolver creates a resolver writing downloads to dir.
//
// Parameters:
//   - dir: directory for downloaded files (created on first download)
//   - timeout: per-download timeout; 0 selects 60s
//   - maxBytes: download size cap; 0 selects 512 MiB
func NewDiskResolver(dir string, timeout time.Duration, maxBytes int64) *DiskResolver {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &DiskResolver{
		dir:      dir,
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Dir returns the download directory.
func (d *DiskResolver) Dir() string {
	return d.dir
}

// Resolve implements Resolver.
func (d *DiskResolver) Resolve(ctx context.Context, src string) (Resolved, error) {
	if src == "" {
		return Resolved{}, ErrEmptySource
	}

	u, err := url.Parse(src)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return d.download(ctx, u)
		case "file":
			return statLocal(u.Path)
		}
	}
	return statLocal(src)
}

func statLocal(p string) (Resolved, error) {
	info, err := os.Stat(p)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %q: %w", ErrSourceNotFound, p, err)
	}
	if info.IsDir() {
		return Resolved{}, fmt.Errorf("%w: %q is a directory", ErrSourceNotFound, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return Resolved{}, fmt.Errorf("resolving %q: %w", p, err)
	}
	return Resolved{Path: abs}, nil
}

func (d *DiskResolver) download(ctx context.Context, u *url.URL) (Resolved, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return Resolved{}, fmt.Errorf("%w: %s returned %d", ErrFetchFailed, u.Redacted(), resp.StatusCode)
	}
	if resp.ContentLength > d.maxBytes {
		return Resolved{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	if err := os.MkdirAll(d.dir, dirPermissions); err != nil {
		return Resolved{}, fmt.Errorf("creating media directory: %w", err)
	}

	target := filepath.Join(d.dir, fileName(u, resp.Header.Get("Content-Type")))
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePermissions)
	if err != nil {
		return Resolved{}, fmt.Errorf("creating media file: %w", err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(resp.Body, d.maxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		removeFile(target)
		return Resolved{}, fmt.Errorf("%w: %w", ErrFetchFailed, copyErr)
	case n > d.maxBytes:
		removeFile(target)
		return Resolved{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, d.maxBytes)
	case closeErr != nil:
		removeFile(target)
		return Resolved{}, fmt.Errorf("writing media file: %w", closeErr)
	}

	return Resolved{Path: target, Owned: true}, nil
}

// fileName builds "<sanitised base>_<uuid><ext>" for a download. The
// extension comes from the URL path, falling back to the content type.
func fileName(u *url.URL, contentType string) string {
	base := path.Base(u.Path)
	ext := path.Ext(base)
	base = strings.TrimSuffix(base, ext)

	if ext == "" && contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
				ext = exts[0]
			}
		}
	}

	name := sanitize(base)
	if name == "" {
		name = sanitize(u.Hostname())
	}
	if name == "" {
		name = "media"
	}
	return name + "_" + uuid.NewString() + sanitize(ext)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxNameLength {
			break
		}
	}
	return b.String()
}
