package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// CacheControl wraps an http.Handler and sets a Cache-Control header on
// the responses it chooses.
type CacheControl struct {
	maybe func(r *http.Request) bool
	next  http.Handler
	value string
}

type CacheControlConfig struct {
	// Add the header, but only if this returns true.  Nil means always.
	Maybe func(r *http.Request) bool

	Next http.Handler

	// NoStore forbids caching entirely; MaxAge is ignored.  Clocks and
	// settlement results must always be fresh.
	NoStore bool

	// MaxAge is how long the content may be cached.
	MaxAge time.Duration

	// CachePrivate keeps shared caches (CDNs, proxies) from storing it.
	CachePrivate bool
}

func NewCacheControl(config *CacheControlConfig) *CacheControl {
	return &CacheControl{
		maybe: config.Maybe,
		next:  config.Next,
		value: cacheControlValue(config),
	}
}

func cacheControlValue(config *CacheControlConfig) string {
	if config.NoStore {
		return "no-store"
	}
	v := "public"
	if config.CachePrivate {
		v = "private"
	}
	if secs := int(config.MaxAge.Seconds()); secs > 0 {
		v += fmt.Sprintf(", max-age=%d", secs)
	}
	return v
}

func (cc *CacheControl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if cc.maybe == nil || cc.maybe(r) {
		w.Header().Set("Cache-Control", cc.value)
	}
	cc.next.ServeHTTP(w, r)
}
