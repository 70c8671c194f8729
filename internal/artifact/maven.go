// Package artifact retrieves the versioned driver jar from a maven-style
// repository, caching it on local disk and skipping downloads whose remote
// size matches the cached copy.
package artifact

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"time"
)

// DefaultURLPrefix is the public repository used when no mirror is set.
const DefaultURLPrefix = "https://s01.oss.sonatype.org/service/local/repositories/public/content"

// SupportedSparkVersions are the spark lines the published jars are built
// against, each pinned to a scala version.
var SupportedSparkVersions = []string{"2.4.0", "3.1.1", "3.2.1"}

var scalaVersionForSpark = map[string]string{
	"2.4.0": "2.11",
	"3.1.1": "2.12",
	"3.2.1": "2.13",
}

// ScalaVersion maps a supported spark version to its scala version.
func ScalaVersion(sparkVersion string) (string, error) {
	sv, ok := scalaVersionForSpark[sparkVersion]
	if !ok {
		return "", fmt.Errorf("unsupported spark version %q, supported versions are %v",
			sparkVersion, SupportedSparkVersions)
	}
	return sv, nil
}

// DownloadError reports a failed interaction with the artifact repository.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Client talks to one artifact group in a maven repository.
type Client struct {
	// BaseURL points at the artifact group directory, e.g.
	// {prefix}/ai/chronon/spark_uber_2.11.
	BaseURL string
	// CacheDir holds downloaded jars; defaults to /tmp.
	CacheDir string
	HTTP     *http.Client
	Retry    RetryPolicy
}

// NewClient builds a client for one jar type and scala version under the
// given URL prefix (mirror or DefaultURLPrefix).
func NewClient(urlPrefix, jarType, scalaVersion string) *Client {
	return &Client{
		BaseURL:  fmt.Sprintf("%s/ai/chronon/spark_%s_%s", urlPrefix, jarType, scalaVersion),
		CacheDir: "/tmp",
		HTTP: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			},
		},
		Retry: DefaultRetryPolicy(),
	}
}

// mavenMetadata is the subset of maven-metadata.xml we read.
type mavenMetadata struct {
	Versioning struct {
		Versions struct {
			Version []string `xml:"version"`
		} `xml:"versions"`
	} `xml:"versioning"`
}

// LatestVersion lists the repository's published versions and returns the
// last plain semver match, or the last match carrying the release tag suffix
// when one is given.
func (c *Client) LatestVersion(ctx context.Context, releaseTag string) (string, error) {
	url := c.BaseURL + "/maven-metadata.xml"
	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var meta mavenMetadata
	if err := xml.NewDecoder(body).Decode(&meta); err != nil {
		return "", &DownloadError{URL: url, Err: fmt.Errorf("parsing maven metadata: %w", err)}
	}

	pattern := `^\d+\.\d+\.\d+$`
	if releaseTag != "" {
		pattern = fmt.Sprintf(`^\d+\.\d+\.\d+_%s\d*$`, regexp.QuoteMeta(releaseTag))
	}
	re := regexp.MustCompile(pattern)
	var latest string
	for _, v := range meta.Versioning.Versions.Version {
		if re.MatchString(v) {
			latest = v
		}
	}
	if latest == "" {
		return "", &DownloadError{URL: url, Err: fmt.Errorf("no version matching %s", pattern)}
	}
	return latest, nil
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &DownloadError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return resp.Body, nil
}
