package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"
)

type Clock interface {
	Now() time.Time
}

// RequestLogger is a middleware that writes an access log line per request.
type RequestLogger struct {
	next  http.Handler
	clock Clock
}

func NewRequestLogger(next http.Handler, clock Clock) *RequestLogger {
	return &RequestLogger{next: next, clock: clock}
}

// remoteAddr is the client as the first proxy saw it.
func remoteAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		client, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(client)
	}
	return r.RemoteAddr
}

func (rl *RequestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := rl.clock.Now()
	ww := &codeWatcher{w: w}
	rl.next.ServeHTTP(ww, r)
	code := ww.Code()
	duration := rl.clock.Now().Sub(start)
	log.Printf("[access log] %d %v %s %v %dB (%v)", code, remoteAddr(r), r.Method, r.URL.Path, ww.Written(), duration)
}
