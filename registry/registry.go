// Package registry implements the Fetcher the resolver and linker call
// through: retrieving a package tarball by version, URL, or local path,
// and querying the registry for a package's published version list.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/harborpm/spm/archive"
	"github.com/harborpm/spm/ignore"
	"github.com/harborpm/spm/reference"
)

// defaultHost is the fixed registry constant. SPM_REGISTRY_HOST
// overrides it.
const defaultHost = "registry.yarnpkg.com"

// Tracker is the subset of the ProgressTracker the registry reports
// downloaded bytes to.
type Tracker interface {
	AddBytes(n int64)
}

// Client is a Fetcher. The zero value talks to the real registry; tests
// construct one pointed at an httptest.Server instead.
type Client struct {
	// Scheme+host, e.g. "https://registry.yarnpkg.com". Empty means use
	// the default host (honoring SPM_REGISTRY_HOST) over https.
	BaseURL string
	HTTP    *http.Client

	// Tracker, if set, is told how many bytes of tarball were read off
	// the wire as each fetch streams in.
	Tracker Tracker
}

// Default returns a Client configured from the environment.
func Default() *Client {
	return &Client{}
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	host := defaultHost
	if env := os.Getenv("SPM_REGISTRY_HOST"); env != "" {
		host = env
	}
	return "https://" + host
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// FetchTarball retrieves a package's tarball bytes, dispatching on the
// reference's shape.
func (c *Client) FetchTarball(name string, ref reference.Reference) ([]byte, error) {
	switch ref.Kind {
	case reference.KindPath:
		return c.fetchPath(ref.Raw)
	case reference.KindExact:
		url := fmt.Sprintf("%s/%s/-/%s-%s.tgz", c.baseURL(), name, name, ref.Raw)
		return c.fetchTarballURL(url)
	case reference.KindURL:
		return c.fetchTarballURL(ref.Raw)
	default:
		return nil, fmt.Errorf("registry: cannot fetch unresolved reference %q for %s", ref.Raw, name)
	}
}

// fetchTarballURL serves url's tarball out of the local store if it's
// already been downloaded, and populates the store on a miss. Unlike
// the registry's version-list responses, tarball bytes are immutable
// once published, so caching them by URL alone is safe even without
// the content-integrity check this installer doesn't perform.
func (c *Client) fetchTarballURL(url string) ([]byte, error) {
	if cached, err := readStoreCache(url); err == nil {
		return cached, nil
	}
	data, err := c.fetchURL(url)
	if err != nil {
		return nil, err
	}
	writeStoreCache(url, data)
	return data, nil
}

// fetchPath reads a local path-dependency reference. A regular file is
// read verbatim. A directory is packed into an in-memory tar honoring
// its own .gitignore, so that FetchTarball always returns tar-shaped
// bytes to its callers.
func (c *Client) fetchPath(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrFetch, path, err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrFetch, path, err)
		}
		return data, nil
	}

	matcher, err := ignore.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load .gitignore under %s: %w", ErrFetch, path, err)
	}
	tarBytes, err := archive.PackDir(path, matcher)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %w", ErrFetch, path, err)
	}
	return tarBytes, nil
}

func (c *Client) fetchURL(url string) ([]byte, error) {
	resp, err := c.httpClient().Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: status %s", ErrFetch, url, resp.Status)
	}

	var body io.Reader = resp.Body
	if c.Tracker != nil {
		body = &countingReader{r: resp.Body, tracker: c.Tracker}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body of %s: %w", ErrFetch, url, err)
	}
	return data, nil
}

// countingReader reports every chunk read through it to a Tracker, so a
// live progress display can show bytes fetched as a download streams
// in rather than jumping once at the end.
type countingReader struct {
	r       io.Reader
	tracker Tracker
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.tracker.AddBytes(int64(n))
	}
	return n, err
}

// versionList is the shape of the `GET /<name>` registry response: only
// the keys of "versions" are read.
type versionList struct {
	Versions map[string]json.RawMessage `json:"versions"`
}

// FetchVersions returns every version name the registry has published
// for name.
func (c *Client) FetchVersions(name string) ([]string, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL(), name)
	data, err := c.fetchURL(url)
	if err != nil {
		return nil, err
	}
	var vl versionList
	if err := json.Unmarshal(data, &vl); err != nil {
		return nil, fmt.Errorf("registry: parse version list for %s: %w", name, err)
	}
	versions := make([]string, 0, len(vl.Versions))
	for v := range vl.Versions {
		versions = append(versions, v)
	}
	return versions, nil
}

// LocalStoreDir returns the root directory spm extracts packages under
// for a given install-dir, honoring SPM_NODE_MODULES_DIR if set.
func LocalStoreDir(installDir string) string {
	name := "spm_node_modules"
	if env := os.Getenv("SPM_NODE_MODULES_DIR"); env != "" {
		name = env
	}
	return filepath.Join(installDir, name)
}

// tarballStoreDir returns the directory downloaded tarballs are cached
// in across installs, honoring SPM_STORE if set and falling back to a
// subdirectory of the user's cache directory. Empty means caching is
// unavailable (no user cache directory on this platform); callers treat
// that as a cache miss rather than an error.
func tarballStoreDir() string {
	if env := os.Getenv("SPM_STORE"); env != "" {
		return env
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "spm", "tarballs")
}

// tarballCachePath names the cache file for url the same way the
// teacher's tarball cache does: a hash of the URL, since the URL alone
// determines the tarball's content once published.
func tarballCachePath(url string) string {
	dir := tarballStoreDir()
	if dir == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(dir, hex.EncodeToString(sum[:])+".tgz")
}

func readStoreCache(url string) ([]byte, error) {
	path := tarballCachePath(url)
	if path == "" {
		return nil, fmt.Errorf("registry: no local store configured")
	}
	return os.ReadFile(path)
}

func writeStoreCache(url string, data []byte) {
	path := tarballCachePath(url)
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o644)
}
