package handlers

import (
	"net"
	"net/http"
	"strings"
)

var identityHeaders = []string{"X-Forwarded-For", "X-Real-IP", "Client-IP"}

// ClientIdentity returns the first public address found in the proxy headers,
// else the host of the connection's remote address.
func ClientIdentity(r *http.Request) string {
	for _, h := range identityHeaders {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		first := strings.TrimSpace(strings.Split(v, ",")[0])
		if ip := net.ParseIP(first); ip != nil && isPublic(ip) {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "0.0.0.0"
	}
	return host
}

func isPublic(ip net.IP) bool {
	return !(ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast())
}
