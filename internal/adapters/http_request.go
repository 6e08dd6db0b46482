package adapters

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

const defaultResolveTimeout = 10 * time.Second
const defaultFetchTimeout = 30 * time.Second

type basicAuth struct {
	user  string
	token string
}

// newFetchClient returns a client whose connect, TLS and response-header
// waits are bounded by timeout while the body stream is not.
func newFetchClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// doGet issues a single GET. Callers own resp.Body; there are no retries.
func doGet(ctx context.Context, client *http.Client, url string, auth basicAuth) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create request").
			WithCause(err)
	}
	if strings.TrimSpace(auth.token) != "" {
		authUser := strings.TrimSpace(auth.user)
		if authUser == "" {
			authUser = "api"
		}
		req.SetBasicAuth(authUser, auth.token)
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request canceled").
				WithCause(ctx.Err())
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("request failed").
			WithCause(err)
	}
	return resp, nil
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}
