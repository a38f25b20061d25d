package he

import (
	"errors"
	"fmt"
	"log" // all kids love log
	"net/http"
)

// HTTPError is an error that knows which status code it should be reported
// with.
type HTTPError struct {
	code int
	err  error
}

func HTTPCodedErrorf(code int, f string, more ...any) *HTTPError {
	return &HTTPError{
		code: code,
		err:  fmt.Errorf(f, more...),
	}
}

func New(code int, err error) *HTTPError {
	return &HTTPError{
		code: code,
		err:  err,
	}
}

func (e *HTTPError) Error() string {
	return e.err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.err
}

func (e *HTTPError) Code() int {
	return e.code
}

// StatusCode finds the status code for err, looking through wrapped errors.
// Anything without one is our fault, so 500.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.code
	}
	return http.StatusInternalServerError
}

// SendErrorToHTTPClient sends err as an HTTP error.  If it is (or wraps) an
// HTTPError, the client gets its code; otherwise, client gets 500 and it's on
// us.
func SendErrorToHTTPClient(w http.ResponseWriter, while string, err error) {
	code := StatusCode(err)
	txt := fmt.Sprintf("can't %s: %v", while, err)
	if code >= 500 {
		log.Printf("BUG: %s", txt)
	} else {
		log.Println(txt)
	}
	http.Error(w, txt, code)
}
