package xsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/omeyang/xprops/pkg/props/xtable"
)

const (
	defaultHTTPTimeout  = 10 * time.Second
	defaultHTTPCacheCap = 16
	defaultHTTPCacheTTL = 5 * time.Minute

	// maxBodyBytes 单个远端配置文档的读取上限。
	maxBodyBytes = 32 << 20
)

// httpCacheEntry 缓存一次成功响应的验证器与正文，用于条件请求。
type httpCacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// HTTPProvider 通过 HTTP(S) 拉取远端配置文档。
//
// 成功响应的 ETag / Last-Modified 会被缓存，后续请求带条件头，
// 远端未变化时以 304 复用缓存正文，避免重复传输。
type HTTPProvider struct {
	client *http.Client
	cache  *expirable.LRU[string, httpCacheEntry]
}

// HTTPOption 配置 HTTPProvider。
type HTTPOption func(*HTTPProvider)

// WithHTTPClient 指定自定义 HTTP 客户端（代理、TLS、超时等）。
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// WithHTTPCache 指定条件请求缓存的容量与存活时间。
func WithHTTPCache(capacity int, ttl time.Duration) HTTPOption {
	return func(p *HTTPProvider) {
		if capacity > 0 && ttl > 0 {
			p.cache = expirable.NewLRU[string, httpCacheEntry](capacity, nil, ttl)
		}
	}
}

// NewHTTPProvider 创建 HTTP Provider。
func NewHTTPProvider(opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		client: &http.Client{Timeout: defaultHTTPTimeout},
		cache:  expirable.NewLRU[string, httpCacheEntry](defaultHTTPCacheCap, nil, defaultHTTPCacheTTL),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Schemes 实现 Provider。
func (p *HTTPProvider) Schemes() []string {
	return []string{SchemeHTTP, SchemeHTTPS}
}

// Load 拉取并按格式解码远端文档。
func (p *HTTPProvider) Load(ctx context.Context, spec *Spec) (*xtable.Table, error) {
	body, err := p.fetch(ctx, spec)
	if err != nil {
		return nil, err
	}
	tbl, err := Decode(body, spec.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: url %q: %w", ErrSourceLoad, spec.Target, err)
	}
	return tbl, nil
}

// Stamp 优先用 HEAD 响应的验证器做印章，远端不支持时退化为
// 拉取正文并取内容哈希。
func (p *HTTPProvider) Stamp(ctx context.Context, spec *Spec) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, spec.Target, nil)
	if err != nil {
		return "", fmt.Errorf("%w: url %q: %w", ErrSourceLoad, spec.Target, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: url %q: %w", ErrSourceLoad, spec.Target, err)
	}
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return "", fmt.Errorf("%w: url %q", ErrSourceNotFound, spec.Target)
	case resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented:
		// 远端不支持 HEAD，落到内容哈希
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("%w: url %q: unexpected status %s", ErrSourceLoad, spec.Target, resp.Status)
	default:
		if etag := resp.Header.Get("ETag"); etag != "" {
			return "etag:" + etag, nil
		}
		if lm := resp.Header.Get("Last-Modified"); lm != "" {
			return "mod:" + lm, nil
		}
	}

	body, err := p.fetch(ctx, spec)
	if err != nil {
		return "", err
	}
	return "sum:" + strconv.FormatUint(xxhash.Sum64(body), 16), nil
}

// fetch 执行一次条件 GET，返回文档正文。
func (p *HTTPProvider) fetch(ctx context.Context, spec *Spec) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.Target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: url %q: %w", ErrSourceLoad, spec.Target, err)
	}
	cached, hasCache := p.cache.Get(spec.Target)
	if hasCache {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: url %q: %w", ErrSourceLoad, spec.Target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotModified && hasCache:
		return cached.body, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: url %q", ErrSourceNotFound, spec.Target)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: url %q: unexpected status %s", ErrSourceLoad, spec.Target, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: url %q: %w", ErrSourceLoad, spec.Target, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: url %q: document exceeds %d bytes", ErrSourceLoad, spec.Target, maxBodyBytes)
	}

	p.cache.Add(spec.Target, httpCacheEntry{
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		body:         body,
	})
	return body, nil
}
