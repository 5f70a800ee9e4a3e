package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIPResolver はレート制限のキーとなる送信元アドレスを決定する。
type ClientIPResolver struct {
	// TrustProxyHeaders がtrueの場合はX-Forwarded-Forの先頭を採用する。
	// 信頼できるリバースプロキシの背後でのみ有効にすること。
	TrustProxyHeaders bool
}

// ClientIP はリクエストの送信元アドレスを返す。
func (c ClientIPResolver) ClientIP(r *http.Request) string {
	if c.TrustProxyHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
