package artifact

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// JarType selects which published artifact flavor to fetch.
const (
	JarTypeUber     = "uber"
	JarTypeEmbedded = "embedded"
)

// FetchJar resolves a version (listing the repository when none is given),
// downloads the assembly jar into the cache dir, and returns its local path.
// The entire step runs under the client's retry policy.
func (c *Client) FetchJar(ctx context.Context, version, jarType, scalaVersion, releaseTag string) (string, error) {
	var jarPath string
	err := c.Retry.Do("download jar", func() error {
		v := version
		if v == "" || v == "latest" {
			var err error
			if v, err = c.LatestVersion(ctx, releaseTag); err != nil {
				return err
			}
		}
		jarURL := fmt.Sprintf("%s/%s/spark_%s_%s-%s-assembly.jar",
			c.BaseURL, v, jarType, scalaVersion, v)
		jarPath = filepath.Join(c.CacheDir, path.Base(jarURL))
		return c.downloadOnce(ctx, jarURL, jarPath)
	})
	if err != nil {
		return "", err
	}
	return jarPath, nil
}

// downloadOnce fetches url into dest unless a local copy already matches the
// remote Content-Length. Size comparison is a heuristic, not a checksum.
func (c *Client) downloadOnce(ctx context.Context, url, dest string) error {
	if info, err := os.Stat(dest); err == nil {
		remoteSize, err := c.remoteSize(ctx, url)
		if err != nil {
			return err
		}
		slog.Info("comparing cached jar to remote",
			"path", dest, "local_size", info.Size(), "remote_size", remoteSize)
		if info.Size() == remoteSize {
			slog.Info("sizes match, reusing cached jar", "path", dest)
			return nil
		}
		slog.Info("cached jar differs from remote, re-downloading", "path", dest)
	}
	return c.fetch(ctx, url, dest)
}

func (c *Client) remoteSize(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, &DownloadError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if resp.ContentLength < 0 {
		return 0, &DownloadError{URL: url, Err: fmt.Errorf("no content length reported")}
	}
	return resp.ContentLength, nil
}

func (c *Client) fetch(ctx context.Context, url, dest string) error {
	slog.Info("downloading jar", "url", url, "path", dest)
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return &DownloadError{URL: url, Err: err}
	}
	if err := out.Close(); err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	return nil
}
