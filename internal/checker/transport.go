package checker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"golang.org/x/net/proxy"

	"github.com/mohamedmamdouh22/proxy-checker-app/internal/model"
)

// buildTransport constructs a fresh round tripper routing through addr.
// Keep-alives are disabled: every probe is an independent network attempt
// and no proxy connection survives the call.
func buildTransport(addr model.ProxyAddress) (http.RoundTripper, error) {
	switch addr.Scheme {
	case "http", "https":
		return buildHTTPTransport(addr), nil
	case "socks5":
		return buildSOCKS5Transport(addr)
	case "socks4":
		return buildSOCKS4Transport(addr), nil
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", addr.Scheme)
	}
}

// buildHTTPTransport tunnels through an HTTP(S) forwarding proxy.
// Credentials, when present, ride in the proxy URL and are sent as
// Proxy-Authorization.
func buildHTTPTransport(addr model.ProxyAddress) *http.Transport {
	u := &url.URL{
		Scheme: addr.Scheme,
		Host:   addr.HostPort(),
	}
	if addr.HasAuth() {
		u.User = url.UserPassword(addr.Username, addr.Password)
	}

	return &http.Transport{
		Proxy: http.ProxyURL(u),
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: -1,
		}).DialContext,
		// Exit nodes routinely present bogus certificates; a cert error
		// must not mask liveness.
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     true,
	}
}

// buildSOCKS5Transport performs plain HTTP(S) requests whose TCP
// connections are established through a SOCKS5 proxy via x/net.
func buildSOCKS5Transport(addr model.ProxyAddress) (*http.Transport, error) {
	var auth *proxy.Auth
	if addr.HasAuth() {
		auth = &proxy.Auth{
			User:     addr.Username,
			Password: addr.Password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", addr.HostPort(), auth, &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: -1,
	})
	if err != nil {
		return nil, err
	}

	dialContext := func(ctx context.Context, network, target string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, target)
		}
		return dialer.Dial(network, target)
	}

	return &http.Transport{
		DialContext:           dialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     true,
	}, nil
}

// buildSOCKS4Transport routes connections through a SOCKS4 proxy using the
// hand-rolled dialer in socks4.go (x/net/proxy has no SOCKS4 support).
func buildSOCKS4Transport(addr model.ProxyAddress) *http.Transport {
	d := &socks4Dialer{proxyAddr: addr.HostPort(), userID: addr.Username}

	return &http.Transport{
		DialContext:           d.DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     true,
	}
}

// classify converts a transport-level error into the human-readable error
// string surfaced in ProbeOutcome.Error.
func classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "connection timeout"
	case errors.Is(err, context.Canceled):
		return "check canceled"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset by proxy"
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return "proxy unreachable"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns resolution failed: " + dnsErr.Name
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "connection timeout"
	}

	var tlsErr tls.RecordHeaderError
	if errors.As(err, &tlsErr) {
		return "tls handshake failed"
	}

	// url.Error wraps most client failures; unwrap for a cleaner message.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "request failed: " + urlErr.Err.Error()
	}
	return "request failed: " + err.Error()
}
