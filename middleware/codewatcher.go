package middleware

import (
	"net/http"
)

var _ http.ResponseWriter = &codeWatcher{}

// codeWatcher records the status code and body size for the access log.
// Only the first WriteHeader counts, as with net/http.
type codeWatcher struct {
	code    int
	written int64
	w       http.ResponseWriter
}

func (cw *codeWatcher) Header() http.Header {
	return cw.w.Header()
}

func (cw *codeWatcher) Write(b []byte) (int, error) {
	if cw.code == 0 {
		cw.code = http.StatusOK
	}
	n, err := cw.w.Write(b)
	cw.written += int64(n)
	return n, err
}

func (cw *codeWatcher) WriteHeader(statusCode int) {
	if cw.code == 0 {
		cw.code = statusCode
	}
	cw.w.WriteHeader(statusCode)
}

// Unwrap lets http.ResponseController reach the real writer.
func (cw *codeWatcher) Unwrap() http.ResponseWriter {
	return cw.w
}

func (cw *codeWatcher) Code() int {
	if cw.code == 0 {
		return http.StatusOK
	}
	return cw.code
}

func (cw *codeWatcher) Written() int64 {
	return cw.written
}
