package streamproxy

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/muurk/musikremote/internal/prefs"
	"github.com/muurk/musikremote/internal/settings"
)

// fakeAudioServer records requests and serves a fixed body per path
type fakeAudioServer struct {
	hits     atomic.Int32
	mu       sync.Mutex
	queries  []url.Values
	password string
}

func (f *fakeAudioServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.Query())
	f.mu.Unlock()

	user, pass, ok := r.BasicAuth()
	if !ok || user != AuthUser || pass != f.password {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if !strings.HasPrefix(r.URL.Path, "/audio/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	_, _ = io.WriteString(w, "audio-bytes-for:"+r.URL.Path)
}

func (f *fakeAudioServer) lastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

type fixture struct {
	upstream *httptest.Server
	audio    *fakeAudioServer
	ws       settings.WorkingSet
	proxy    *Proxy
	mu       sync.Mutex
}

func (fx *fixture) load() settings.WorkingSet {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return fx.ws.Clone()
}

func (fx *fixture) set(key prefs.Key, v prefs.Value) {
	fx.mu.Lock()
	fx.ws[key] = v
	fx.mu.Unlock()
}

func newFixture(t *testing.T, tlsServer bool, choices settings.Choices) *fixture {
	t.Helper()
	audio := &fakeAudioServer{password: "pw"}
	var upstream *httptest.Server
	if tlsServer {
		upstream = httptest.NewTLSServer(audio)
	} else {
		upstream = httptest.NewServer(audio)
	}
	t.Cleanup(upstream.Close)

	u, _ := url.Parse(upstream.URL)
	host, port, _ := net.SplitHostPort(u.Host)
	portNum, _ := strconv.Atoi(port)

	ws := settings.Defaults()
	ws[settings.KeyAddress] = prefs.StringValue(host)
	ws[settings.KeyAudioPort] = prefs.IntValue(portNum)
	ws[settings.KeyPassword] = prefs.StringValue("pw")
	ws[settings.KeySSLEnabled] = prefs.BoolValue(tlsServer)

	fx := &fixture{upstream: upstream, audio: audio, ws: ws}
	p, err := New(Options{Load: fx.load, Choices: choices, CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	fx.proxy = p
	return fx
}

func (fx *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	fx.proxy.ServeHTTP(rr, req)
	return rr
}

func TestProxy_ForwardsAndCaches(t *testing.T) {
	fx := newFixture(t, false, nil)

	rr := fx.get(t, "/audio/id/42")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "audio-bytes-for:/audio/id/42" {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
	if rr.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first request X-Cache = %q", rr.Header().Get("X-Cache"))
	}

	rr = fx.get(t, "/audio/id/42")
	if rr.Code != http.StatusOK || rr.Body.String() != "audio-bytes-for:/audio/id/42" {
		t.Errorf("cached response = %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second request X-Cache = %q", rr.Header().Get("X-Cache"))
	}
	if hits := fx.audio.hits.Load(); hits != 1 {
		t.Errorf("Expected 1 upstream hit, got %d", hits)
	}

	st := fx.proxy.Status()
	if st.CacheFiles != 1 {
		t.Errorf("Expected 1 cached file, got %d", st.CacheFiles)
	}
}

func TestProxy_NoBitrateWhenTranscodingOff(t *testing.T) {
	fx := newFixture(t, false, nil)
	fx.get(t, "/audio/id/1")
	if got := fx.audio.lastQuery().Get("bitrate"); got != "" {
		t.Errorf("Expected no bitrate param, got %q", got)
	}
}

func TestProxy_ReloadAppliesBitrateAndPassword(t *testing.T) {
	fx := newFixture(t, false, nil)

	fx.set(settings.KeyTranscoderBitrateIndex, prefs.IntValue(7))
	fx.set(settings.KeyPassword, prefs.StringValue("wrong"))
	if err := fx.proxy.Reload(); err != nil {
		t.Fatal(err)
	}

	rr := fx.get(t, "/audio/id/1")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected upstream 401 to be relayed, got %d", rr.Code)
	}
	if got := fx.audio.lastQuery().Get("bitrate"); got != "320" {
		t.Errorf("Expected bitrate=320, got %q", got)
	}

	st := fx.proxy.Status()
	if st.BitrateKbps != 320 || st.Reloads != 2 {
		t.Errorf("Status() = %+v", st)
	}
	if st.CacheFiles != 0 {
		t.Error("error responses must not be cached")
	}
}

func TestProxy_CertificateValidation(t *testing.T) {
	fx := newFixture(t, true, nil)

	// httptest's certificate is self-signed.
	if rr := fx.get(t, "/audio/id/7"); rr.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 with validation on, got %d", rr.Code)
	}

	fx.set(settings.KeyCertValidationDisabled, prefs.BoolValue(true))
	if err := fx.proxy.Reload(); err != nil {
		t.Fatal(err)
	}
	if rr := fx.get(t, "/audio/id/7"); rr.Code != http.StatusOK {
		t.Errorf("Expected 200 with validation off, got %d", rr.Code)
	}
	if !strings.HasPrefix(fx.proxy.Status().Upstream, "https://") {
		t.Errorf("upstream should be https, got %s", fx.proxy.Status().Upstream)
	}
}

func TestProxy_CacheEviction(t *testing.T) {
	// Each body is 27 bytes; a 64 byte cache holds two.
	choices := settings.Choices{
		settings.KeyTranscoderBitrateIndex: settings.BitrateChoices,
		settings.KeyDiskCacheSizeIndex: {
			{Label: "tiny", Value: 64},
			{Label: "small", Value: 128},
			{Label: "medium", Value: 4096},
		},
	}
	fx := newFixture(t, false, choices)

	for _, id := range []string{"1", "2", "3"} {
		if rr := fx.get(t, "/audio/id/"+id); rr.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", id, rr.Code)
		}
	}
	st := fx.proxy.Status()
	if st.CacheBytes > 4096 || st.CacheFiles != 3 {
		t.Fatalf("medium cache should hold all three, got %+v", st)
	}

	fx.set(settings.KeyDiskCacheSizeIndex, prefs.IntValue(0))
	if err := fx.proxy.Reload(); err != nil {
		t.Fatal(err)
	}
	st = fx.proxy.Status()
	if st.CacheBytes > 64 {
		t.Errorf("cache should be trimmed to 64 bytes, got %d", st.CacheBytes)
	}
	if st.CacheFiles != 2 {
		t.Errorf("Expected 2 files after trim, got %d", st.CacheFiles)
	}
}

func TestProxy_RejectsNonGet(t *testing.T) {
	fx := newFixture(t, false, nil)
	req := httptest.NewRequest(http.MethodPost, "/audio/id/1", nil)
	rr := httptest.NewRecorder()
	fx.proxy.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
}

func TestProxy_UpstreamDown(t *testing.T) {
	fx := newFixture(t, false, nil)
	fx.upstream.Close()

	if rr := fx.get(t, "/audio/id/1"); rr.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rr.Code)
	}
}

func TestNew_RequiresLoad(t *testing.T) {
	if _, err := New(Options{CacheDir: t.TempDir()}); err == nil {
		t.Error("expected error without Load")
	}
}
