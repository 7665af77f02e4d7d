package engine

import (
	"context"
	"io"
	"net/http"
	"strings"

	"codeberg.org/sigterm-de/boophost/internal/logging"
)

const (
	msgNetworkRequired = "Network permission required"
	msgFetchFailed     = "Failed to fetch"
)

// maxFetchBytes caps the body handed back to a script.
const maxFetchBytes = 10 << 20

// fetch performs a blocking HTTP request for a script. ok is false when the
// request could not be made or completed; an error message has then already
// been posted to st.
func (e *Executor) fetch(ctx context.Context, st *State, allowed bool, url, method string, body *string) (string, bool) {
	if !allowed {
		st.PostError(msgNetworkRequired)
		return "", false
	}
	if method == "" {
		method = http.MethodGet
	}

	ctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(*body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, reader)
	if err != nil {
		logging.Logf(logging.WARN, st.ScriptName(), "fetch %s: %v", url, err)
		st.PostError(msgFetchFailed)
		return "", false
	}

	resp, err := e.client.Do(req)
	if err != nil {
		logging.Logf(logging.WARN, st.ScriptName(), "fetch %s: %v", url, err)
		st.PostError(msgFetchFailed)
		return "", false
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		logging.Logf(logging.WARN, st.ScriptName(), "fetch %s: read body: %v", url, err)
		st.PostError(msgFetchFailed)
		return "", false
	}
	logging.Logf(logging.INFO, st.ScriptName(), "fetch %s %s: %d (%d bytes)", req.Method, url, resp.StatusCode, len(data))
	return string(data), true
}
