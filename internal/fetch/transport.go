package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

var privateIPBlocks []*net.IPNet

func init() {
	for _, cidr := range []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"100.64.0.0/10", // carrier-grade NAT
		"0.0.0.0/8",
		"::1/128",
		"fe80::/10",
		"fc00::/7",
	} {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Errorf("parse error on %q: %v", cidr, err))
		}
		privateIPBlocks = append(privateIPBlocks, block)
	}
}

// IsPrivateIP reports whether ip is loopback, link-local or in a private range.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, block := range privateIPBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// BlockedAddressError is returned when every address of a host is private.
type BlockedAddressError struct {
	Host string
}

func (e *BlockedAddressError) Error() string {
	return fmt.Sprintf("blocked connection to private/local address for %s", e.Host)
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// safeDialContext resolves the host, rejects private addresses and dials the
// first public IP directly so the name is not resolved a second time.
func safeDialContext(dialer *net.Dialer, allowPrivate bool) dialFunc {
	if allowPrivate {
		return dialer.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
		if err != nil {
			return nil, err
		}

		var safeIP net.IP
		for _, ip := range ips {
			if !IsPrivateIP(ip) {
				safeIP = ip
				break
			}
		}
		if safeIP == nil {
			return nil, &BlockedAddressError{Host: host}
		}

		return dialer.DialContext(ctx, network, net.JoinHostPort(safeIP.String(), port))
	}
}

// newStandardTransport returns an http.Transport guarded by the SSRF dialer.
func newStandardTransport(timeout time.Duration, allowPrivate bool) *http.Transport {
	return &http.Transport{
		DialContext:           safeDialContext(&net.Dialer{Timeout: timeout}, allowPrivate),
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
}

// utlsConn exposes the ConnectionState net/http2 expects.
type utlsConn struct {
	*utls.UConn
}

func (c *utlsConn) ConnectionState() tls.ConnectionState {
	cs := c.UConn.ConnectionState()
	return tls.ConnectionState{
		Version:                    cs.Version,
		HandshakeComplete:          cs.HandshakeComplete,
		CipherSuite:                cs.CipherSuite,
		NegotiatedProtocol:         cs.NegotiatedProtocol,
		NegotiatedProtocolIsMutual: cs.NegotiatedProtocolIsMutual,
		ServerName:                 cs.ServerName,
		PeerCertificates:           cs.PeerCertificates,
		VerifiedChains:             cs.VerifiedChains,
		OCSPResponse:               cs.OCSPResponse,
		TLSUnique:                  cs.TLSUnique,
	}
}

// browserTransport dials https with a Firefox TLS fingerprint and routes the
// connection to HTTP/2 or HTTP/1.1 by ALPN. Plain http goes through h1.
type browserTransport struct {
	dial dialFunc
	h1   *http.Transport
	h2   *http2.Transport
}

func newBrowserTransport(timeout time.Duration, allowPrivate bool) *browserTransport {
	return &browserTransport{
		dial: safeDialContext(&net.Dialer{Timeout: timeout}, allowPrivate),
		h1:   newStandardTransport(timeout, allowPrivate),
		h2:   &http2.Transport{},
	}
}

func (bt *browserTransport) dialUTLS(ctx context.Context, addr string) (net.Conn, string, error) {
	conn, err := bt.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, "", err
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloFirefox_120)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, "", err
	}

	return &utlsConn{tlsConn}, tlsConn.ConnectionState().NegotiatedProtocol, nil
}

func (bt *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return bt.h1.RoundTrip(req)
	}

	addr := req.URL.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "443")
	}

	conn, alpn, err := bt.dialUTLS(req.Context(), addr)
	if err != nil {
		return nil, err
	}

	if alpn == "h2" {
		h2conn, err := bt.h2.NewClientConn(conn)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return h2conn.RoundTrip(req)
	}

	// One-shot h1 transport over the already negotiated connection
	oneShot := &http.Transport{
		DialTLSContext: func(context.Context, string, string) (net.Conn, error) {
			return conn, nil
		},
		DisableKeepAlives: true,
	}
	return oneShot.RoundTrip(req)
}
