package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// getClientIP returns the address rate limits and access logs are keyed on.
// Forwarding headers are honoured only when the peer is the tunnel or ingress in
// front of the webhook (loopback or a private network); anyone else could mint
// a fresh rate-limit bucket per request by setting them.
func getClientIP(c *gin.Context) string {
	remote := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if !trustedProxy(net.ParseIP(remote)) {
		return remote
	}

	// The right-most entry not added by our own proxies is the client; entries
	// to its left are whatever the client chose to send.
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		first := ""
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				continue
			}
			if !trustedProxy(ip) {
				return ip.String()
			}
			first = ip.String()
		}
		if first != "" {
			return first
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(c.GetHeader("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return remote
}

func trustedProxy(ip net.IP) bool {
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
}
