package middleware

import "github.com/unrolled/secure"

// SecureHeaders sets the standard hardening headers. In production it also
// redirects plain HTTP to HTTPS and sends HSTS.
func SecureHeaders(production bool) Middleware {
	opts := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "no-referrer",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !production,
	}
	if production {
		opts.SSLRedirect = true
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
	}
	return secure.New(opts).Handler
}
