// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// apiHeaders are set on every response. Nothing the API returns is meant
// to be rendered, framed or embedded by a browser.
var apiHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Cross-Origin-Resource-Policy", "same-site"},
}

// SecureHeaders adds security headers suited to a JSON API. Responses to
// requests that carry credentials are marked uncacheable so shared caches
// never hand one contributor's drafts or session to another.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range apiHeaders {
			h.Set(kv[0], kv[1])
		}
		if hasCredentials(r) {
			h.Set("Cache-Control", "no-store")
			h.Add("Vary", "Authorization")
		}

		next.ServeHTTP(w, r)
	})
}

func hasCredentials(r *http.Request) bool {
	if r.Header.Get("Authorization") != "" {
		return true
	}
	_, err := r.Cookie(AccessTokenCookie)
	return err == nil
}
