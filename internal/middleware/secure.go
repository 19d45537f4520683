package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// securityHeaders are sent on every response.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"Referrer-Policy", "no-referrer"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Origin-Agent-Cluster", "?1"},
	{"X-DNS-Prefetch-Control", "off"},
	{"X-Download-Options", "noopen"},
	{"X-Permitted-Cross-Domain-Policies", "none"},
	{"X-XSS-Protection", "0"},
}

// SecureHeaders sets the usual browser hardening headers. HSTS is only sent
// in production, where the site is served over HTTPS.
func SecureHeaders(production bool) func(http.Handler) http.Handler {
	mws := make(chi.Middlewares, 0, len(securityHeaders)+1)
	for _, h := range securityHeaders {
		mws = append(mws, chimiddleware.SetHeader(h[0], h[1]))
	}
	if production {
		mws = append(mws, chimiddleware.SetHeader("Strict-Transport-Security", "max-age=15552000; includeSubDomains"))
	}
	return mws.Handler
}
