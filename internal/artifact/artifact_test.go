package artifact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metadataXML = `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>ai.chronon</groupId>
  <artifactId>spark_uber_2.11</artifactId>
  <versioning>
    <versions>
      <version>0.0.10</version>
      <version>0.0.11</version>
      <version>0.0.11_canary2</version>
      <version>0.0.12-SNAPSHOT</version>
    </versions>
  </versioning>
</metadata>`

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, JarTypeUber, "2.11")
	c.CacheDir = t.TempDir()
	c.Retry = RetryPolicy{Sleep: func(time.Duration) {}}
	return c
}

func TestScalaVersion(t *testing.T) {
	sv, err := ScalaVersion("3.1.1")
	require.NoError(t, err)
	assert.Equal(t, "2.12", sv)

	_, err = ScalaVersion("1.6.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2.4.0")
}

func TestLatestVersion(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, metadataXML)
	}))

	v, err := c.LatestVersion(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "0.0.11", v, "snapshot versions must be filtered out")
}

func TestLatestVersion_ReleaseTag(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, metadataXML)
	}))

	v, err := c.LatestVersion(context.Background(), "canary")
	require.NoError(t, err)
	assert.Equal(t, "0.0.11_canary2", v)
}

func TestLatestVersion_NoMatch(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, metadataXML)
	}))

	_, err := c.LatestVersion(context.Background(), "prod")
	require.Error(t, err)

	var de *DownloadError
	require.ErrorAs(t, err, &de)
}

func TestFetchJar_DownloadsAndCaches(t *testing.T) {
	var gets int
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/ai/chronon/spark_uber_2.11/maven-metadata.xml":
			fmt.Fprint(w, metadataXML)
		case r.Method == http.MethodGet:
			gets++
			fmt.Fprint(w, "jar-bytes")
		case r.Method == http.MethodHead:
			w.Header().Set("Content-Length", "9")
		}
	}))

	path, err := c.FetchJar(context.Background(), "", JarTypeUber, "2.11", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.CacheDir, "spark_uber_2.11-0.0.11-assembly.jar"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jar-bytes", string(data))
	assert.Equal(t, 1, gets)

	// Second fetch sees matching sizes and skips the download.
	_, err = c.FetchJar(context.Background(), "0.0.11", JarTypeUber, "2.11", "")
	require.NoError(t, err)
	assert.Equal(t, 1, gets)
}

func TestFetchJar_RedownloadsOnSizeMismatch(t *testing.T) {
	var gets int
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.Header().Set("Content-Length", "100")
		case http.MethodGet:
			gets++
			fmt.Fprint(w, "jar-bytes")
		}
	}))

	_, err := c.FetchJar(context.Background(), "0.0.11", JarTypeUber, "2.11", "")
	require.NoError(t, err)
	_, err = c.FetchJar(context.Background(), "0.0.11", JarTypeUber, "2.11", "")
	require.NoError(t, err)
	assert.Equal(t, 2, gets, "mismatched sizes must trigger a re-download")
}

func TestFetchJar_ExplicitVersionSkipsListing(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEqual(t, "/ai/chronon/spark_uber_2.11/maven-metadata.xml", r.URL.Path)
		fmt.Fprint(w, "jar-bytes")
	}))

	path, err := c.FetchJar(context.Background(), "0.0.9", JarTypeUber, "2.11", "")
	require.NoError(t, err)
	assert.Contains(t, path, "spark_uber_2.11-0.0.9-assembly.jar")
}

func TestRetryPolicy_LinearBackoff(t *testing.T) {
	var delays []time.Duration
	p := RetryPolicy{
		Retries:   3,
		BaseDelay: 10 * time.Millisecond,
		Sleep:     func(d time.Duration) { delays = append(delays, d) },
	}

	calls := 0
	err := p.Do("test", func() error {
		calls++
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
	}, delays)
}

func TestRetryPolicy_SucceedsAfterFailures(t *testing.T) {
	p := RetryPolicy{Retries: 3, Sleep: func(time.Duration) {}}
	calls := 0
	err := p.Do("test", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_PredicateStopsRetries(t *testing.T) {
	fatal := errors.New("fatal")
	p := RetryPolicy{
		Retries:   3,
		Sleep:     func(time.Duration) {},
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
	}

	calls := 0
	err := p.Do("test", func() error {
		calls++
		return fatal
	})
	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}
