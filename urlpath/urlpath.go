package urlpath

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ts4z/chipclock/he"
)

// BadIDDelay is how long a client that sends a garbage id waits for its
// error, in case it's doing so in a tight loop.
var BadIDDelay = 2 * time.Second

// IDPathValue extracts the "id" path variable from the request and parses it.
//
// On error, the error is reported to the client after BadIDDelay, and
// returned so the caller can give up.
func IDPathValue(w http.ResponseWriter, r *http.Request) (int64, error) {
	id, err := idPathValueFromRequest(r)
	if err != nil {
		time.Sleep(BadIDDelay)
		he.SendErrorToHTTPClient(w, "parse url", err)
		return -1, err
	}
	return id, nil
}

func idPathValueFromRequest(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return -1, he.HTTPCodedErrorf(400, "can't parse id from url path: %v", err)
	}
	return id, nil
}
