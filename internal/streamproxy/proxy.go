package streamproxy

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/musikremote/internal/logging"
	"github.com/muurk/musikremote/internal/settings"
	"github.com/muurk/musikremote/internal/version"
)

// AuthUser is the user name musikcube expects for basic auth
const AuthUser = "default"

// Options configures a Proxy
type Options struct {
	// Load returns the current preferences. Called on New and every Reload.
	Load func() settings.WorkingSet

	// Choices resolves bitrate and cache size indices. Defaults to
	// settings.DefaultChoices().
	Choices settings.Choices

	// CacheDir holds cached responses
	CacheDir string
}

type upstream struct {
	base       *url.URL
	password   string
	bitrate    int64
	cacheLimit int64
	insecure   bool
}

// Proxy forwards and caches audio requests. It is safe for concurrent use.
type Proxy struct {
	load    func() settings.WorkingSet
	choices settings.Choices
	cache   *diskCache

	mu      sync.RWMutex
	up      upstream
	client  *http.Client
	reloads int
}

// New creates a proxy and applies the current preferences
func New(opts Options) (*Proxy, error) {
	if opts.Load == nil {
		return nil, errors.New("streamproxy: Options.Load is required")
	}
	choices := opts.Choices
	if choices == nil {
		choices = settings.DefaultChoices()
	}
	cache, err := newDiskCache(opts.CacheDir, 0)
	if err != nil {
		return nil, err
	}

	p := &Proxy{load: opts.Load, choices: choices, cache: cache}
	p.apply(p.load())
	return p, nil
}

// Reload re-reads preferences, swaps the upstream client and resizes the cache
func (p *Proxy) Reload() error {
	p.apply(p.load())
	return nil
}

func (p *Proxy) apply(ws settings.WorkingSet) {
	scheme := "http"
	if ws.Bool(settings.KeySSLEnabled) {
		scheme = "https"
	}
	up := upstream{
		base: &url.URL{
			Scheme: scheme,
			Host:   net.JoinHostPort(ws.Str(settings.KeyAddress), strconv.Itoa(ws.Int(settings.KeyAudioPort))),
		},
		password:   ws.Str(settings.KeyPassword),
		bitrate:    p.choices.TranscoderBitrate(ws),
		cacheLimit: p.choices.DiskCacheSize(ws),
		insecure:   ws.Bool(settings.KeyCertValidationDisabled),
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// #nosec G402 -- the user explicitly disabled certificate validation
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: up.insecure}
	client := &http.Client{Transport: transport}

	p.mu.Lock()
	old := p.client
	p.up = up
	p.client = client
	p.reloads++
	p.mu.Unlock()

	if old != nil {
		old.CloseIdleConnections()
	}
	p.cache.setLimit(up.cacheLimit)

	logging.Info("Stream proxy configured",
		zap.String("upstream", up.base.String()),
		zap.Int64("bitrate_kbps", up.bitrate),
		zap.Int64("cache_limit", up.cacheLimit),
		zap.Bool("insecure_tls", up.insecure),
	)
}

func (p *Proxy) snapshot() (upstream, *http.Client) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.up, p.client
}

// upstreamURL maps a local request onto the audio server
func (up upstream) upstreamURL(r *http.Request) *url.URL {
	u := *up.base
	u.Path = r.URL.Path
	q := r.URL.Query()
	if up.bitrate > 0 {
		q.Set("bitrate", strconv.FormatInt(up.bitrate, 10))
	}
	u.RawQuery = q.Encode()
	return &u
}

// ServeHTTP implements http.Handler
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	up, client := p.snapshot()
	target := up.upstreamURL(r)
	key := cacheKey(target.String())

	if f, ok := p.cache.open(key); ok {
		defer f.Close()
		info, err := f.Stat()
		if err == nil {
			logging.Debug("Serving from cache", zap.String("path", r.URL.Path))
			w.Header().Set("X-Cache", "HIT")
			http.ServeContent(w, r, "", info.ModTime(), f)
			return
		}
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), nil)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	req.SetBasicAuth(AuthUser, up.password)
	req.Header.Set("User-Agent", version.UserAgent())
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := client.Do(req)
	if err != nil {
		logging.Warn("Upstream request failed",
			zap.String("upstream", up.base.String()),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for _, h := range []string{"Content-Type", "Content-Length", "Content-Range", "Accept-Ranges", "Last-Modified"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(resp.StatusCode)

	// Only complete bodies are cacheable.
	if r.Method == http.MethodHead {
		return
	}
	start := time.Now()
	var n int64
	if resp.StatusCode == http.StatusOK && up.cacheLimit > 0 {
		n, err = p.cache.store(key, w, resp.Body)
	} else {
		n, err = io.Copy(w, resp.Body)
	}
	if err != nil {
		logging.Debug("Stream interrupted", zap.String("path", r.URL.Path), zap.Error(err))
		return
	}
	logging.Debug("Streamed from upstream",
		zap.String("path", r.URL.Path),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// Status describes the proxy for the daemon status endpoint
type Status struct {
	Upstream    string `json:"upstream"`
	BitrateKbps int64  `json:"bitrate_kbps"`
	CacheLimit  int64  `json:"cache_limit_bytes"`
	CacheBytes  int64  `json:"cache_bytes"`
	CacheFiles  int    `json:"cache_files"`
	InsecureTLS bool   `json:"insecure_tls"`
	Reloads     int    `json:"reloads"`
}

// Status returns the current upstream and cache usage
func (p *Proxy) Status() Status {
	p.mu.RLock()
	up, reloads := p.up, p.reloads
	p.mu.RUnlock()

	bytes, files := p.cache.usage()
	return Status{
		Upstream:    up.base.String(),
		BitrateKbps: up.bitrate,
		CacheLimit:  up.cacheLimit,
		CacheBytes:  bytes,
		CacheFiles:  files,
		InsecureTLS: up.insecure,
		Reloads:     reloads,
	}
}

// String implements fmt.Stringer
func (s Status) String() string {
	return fmt.Sprintf("%s (bitrate %d kbps, cache %d/%d bytes in %d files)",
		s.Upstream, s.BitrateKbps, s.CacheBytes, s.CacheLimit, s.CacheFiles)
}
