// Package offline is a caching edge that sits in front of the document web
// app. It keeps named response caches, serves them when the origin is
// unreachable and falls back to an offline page, offline settings or a
// placeholder image.
package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/bizdocs/internal/document"
)

// Cache names
const (
	StaticCache  = "business-docs-v2"
	OfflineCache = "business-docs-offline-v1"
	APICache     = "api-cache"
)

const (
	// OfflinePage is served for navigations while the origin is down
	OfflinePage = "/offline.html"
	// SettingsPath gets offline settings when neither origin nor cache answer
	SettingsPath = "/api/get-settings"

	offlineMessage = "Offline - This feature requires internet connection"

	maxBodySize      = 32 << 20
	installWorkers   = 4
	defaultTimeout   = 30 * time.Second
	cacheStateHeader = "X-Cache"
)

// PlaceholderSVG is returned for images that are neither cached nor reachable
const PlaceholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="200" viewBox="0 0 200 200">` +
	`<rect width="200" height="200" fill="#f0f0f0"/>` +
	`<text x="100" y="100" text-anchor="middle" fill="#999">Offline</text></svg>`

// DefaultPrecache lists the resources the form needs to work offline
var DefaultPrecache = []string{
	"/",
	"/static/css/style.css",
	"/static/js/app.js",
	"/static/manifest.json",
}

// ErrNetwork marks a transport failure or an unavailable origin
var ErrNetwork = errors.New("network unavailable")

var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true,
}

// Config configures a Router
type Config struct {
	Upstream      *url.URL
	Client        *http.Client
	Precache      []string
	CacheCapacity int
	Logger        *zap.Logger
	Now           func() time.Time
}

// Router routes requests between the origin and the caches
type Router struct {
	upstream *url.URL
	client   *http.Client
	precache []string
	storage  *Storage
	logger   *zap.Logger
	now      func() time.Time
}

// NewRouter creates a router for cfg.Upstream
func NewRouter(cfg Config) (*Router, error) {
	if cfg.Upstream == nil || cfg.Upstream.Host == "" {
		return nil, fmt.Errorf("upstream URL is required")
	}
	if cfg.Upstream.Scheme != "http" && cfg.Upstream.Scheme != "https" {
		return nil, fmt.Errorf("unsupported upstream scheme %q", cfg.Upstream.Scheme)
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.Precache == nil {
		cfg.Precache = DefaultPrecache
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Router{
		upstream: cfg.Upstream,
		client:   cfg.Client,
		precache: cfg.Precache,
		storage:  NewStorage(cfg.CacheCapacity),
		logger:   cfg.Logger,
		now:      cfg.Now,
	}, nil
}

// Storage returns the router's caches
func (rt *Router) Storage() *Storage {
	return rt.storage
}

// Install fetches the precache list into the static cache and the offline
// page into the offline cache. Every resource is attempted; the first
// failure is returned.
func (rt *Router) Install(ctx context.Context) error {
	static := rt.storage.Open(StaticCache)
	offline := rt.storage.Open(OfflineCache)

	var g errgroup.Group
	g.SetLimit(installWorkers)

	add := func(cache *Cache, target string) {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return fmt.Errorf("precache %s: %w", target, err)
			}
			entry, err := rt.fetch(req)
			if err != nil {
				return fmt.Errorf("precache %s: %w", target, err)
			}
			if entry.Status != http.StatusOK {
				return fmt.Errorf("precache %s: unexpected status %d", target, entry.Status)
			}
			cache.Put(cacheKey(req.URL), entry)
			return nil
		})
	}

	for _, target := range rt.precache {
		add(static, target)
	}
	add(offline, OfflinePage)

	if err := g.Wait(); err != nil {
		return err
	}
	rt.logger.Info("offline caches installed",
		zap.Int("static", static.Len()),
		zap.Int("offline", offline.Len()))
	return nil
}

// Activate deletes every cache outside the whitelist and returns the
// deleted names
func (rt *Router) Activate() []string {
	whitelist := map[string]bool{StaticCache: true, OfflineCache: true, APICache: true}

	var deleted []string
	for _, name := range rt.storage.Names() {
		if whitelist[name] {
			continue
		}
		if rt.storage.Delete(name) {
			deleted = append(deleted, name)
		}
	}
	if len(deleted) > 0 {
		rt.logger.Info("deleted stale caches", zap.Strings("caches", deleted))
	}
	return deleted
}

// ServeHTTP implements http.Handler
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.Contains(r.URL.Path, "/api/"):
		rt.serveAPI(w, r)
	case isNavigation(r):
		rt.serveNavigation(w, r)
	default:
		rt.serveStatic(w, r)
	}
}

// serveAPI is network first
func (rt *Router) serveAPI(w http.ResponseWriter, r *http.Request) {
	key := cacheKey(r.URL)

	entry, err := rt.fetch(r)
	if err == nil {
		if r.Method == http.MethodGet && entry.Status >= 200 && entry.Status < 300 {
			rt.storage.Open(APICache).Put(key, entry)
		}
		writeEntry(w, entry, "miss")
		return
	}

	rt.logger.Debug("api request failed", zap.String("path", r.URL.Path), zap.Error(err))

	if r.Method == http.MethodGet {
		if cached, ok := rt.storage.Match(key); ok {
			writeEntry(w, cached, "hit")
			return
		}
	}

	if r.URL.Path == SettingsPath {
		writeJSON(w, http.StatusOK, document.OfflineSettings())
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": offlineMessage})
}

// serveNavigation is network first with the offline page as fallback
func (rt *Router) serveNavigation(w http.ResponseWriter, r *http.Request) {
	entry, err := rt.fetch(r)
	if err == nil {
		writeEntry(w, entry, "miss")
		return
	}

	rt.logger.Debug("navigation failed", zap.String("path", r.URL.Path), zap.Error(err))

	if cached, ok := rt.storage.Match(OfflinePage); ok {
		writeEntry(w, cached, "offline")
		return
	}
	http.Error(w, offlineMessage, http.StatusServiceUnavailable)
}

// serveStatic is cache first
func (rt *Router) serveStatic(w http.ResponseWriter, r *http.Request) {
	key := cacheKey(r.URL)

	if r.Method == http.MethodGet {
		if cached, ok := rt.storage.Match(key); ok {
			writeEntry(w, cached, "hit")
			return
		}
	}

	entry, err := rt.fetch(r)
	if err == nil {
		if r.Method == http.MethodGet && entry.Status == http.StatusOK {
			rt.storage.Open(StaticCache).Put(key, entry)
		}
		writeEntry(w, entry, "miss")
		return
	}

	rt.logger.Debug("static request failed", zap.String("path", r.URL.Path), zap.Error(err))

	if isImage(r) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set(cacheStateHeader, "offline")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, PlaceholderSVG)
		return
	}
	http.Error(w, offlineMessage, http.StatusServiceUnavailable)
}

// fetch forwards r to the upstream and reads the whole response. Transport
// errors and 502/503/504 responses are reported as ErrNetwork.
func (rt *Router) fetch(r *http.Request) (*Entry, error) {
	target := *rt.upstream
	target.Path = path.Join("/", rt.upstream.Path, r.URL.Path)
	if strings.HasSuffix(r.URL.Path, "/") && !strings.HasSuffix(target.Path, "/") {
		target.Path += "/"
	}
	target.RawQuery = r.URL.RawQuery

	var body io.Reader
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		return nil, err
	}
	out.Header = r.Header.Clone()
	removeHopHeaders(out.Header)

	resp, err := rt.client.Do(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: upstream returned %d", ErrNetwork, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	header := resp.Header.Clone()
	removeHopHeaders(header)
	header.Del("Content-Length")

	return &Entry{
		Status:   resp.StatusCode,
		Header:   header,
		Body:     data,
		StoredAt: rt.now(),
	}, nil
}

// cacheKey identifies a request by path and query
func cacheKey(u *url.URL) string {
	return u.RequestURI()
}

func isNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func isImage(r *http.Request) bool {
	if dest := r.Header.Get("Sec-Fetch-Dest"); dest != "" {
		return dest == "image"
	}
	if strings.HasPrefix(r.Header.Get("Accept"), "image/") {
		return true
	}
	return imageExts[strings.ToLower(path.Ext(r.URL.Path))]
}

func removeHopHeaders(h http.Header) {
	for _, k := range hopHeaders {
		h.Del(k)
	}
}

func writeEntry(w http.ResponseWriter, e *Entry, state string) {
	for k, vs := range e.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set(cacheStateHeader, state)
	w.WriteHeader(e.Status)
	_, _ = w.Write(e.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(cacheStateHeader, "offline")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
