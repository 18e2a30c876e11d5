// Package httpc provides the shared HTTP client used by every outbound
// adapter (translation, completion, speech). Use it instead of
// http.DefaultClient so that every call has timeouts.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// Client is the shared client with DefaultTimeout.
var Client = NewClient(DefaultTimeout)

// NewClient creates an HTTP client with the given overall timeout.
// A zero timeout means no overall deadline; callers then rely on the
// request context.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(),
	}
}

// OrDefault returns c, or the shared Client when c is nil.
func OrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return Client
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
