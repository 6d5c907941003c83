package middleware

import (
	"encoding/json"
	"mime"
	"net/http"
)

// SecurityHeaders sets the headers every API response carries. Nothing here
// renders HTML, so the policy denies all content.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Generated haiku are tied to the signing account.
		if r.Method == http.MethodPost {
			h.Set("Cache-Control", "no-store")
		}

		next.ServeHTTP(w, r)
	})
}

// JSONBody bounds POST bodies to maxBytes and requires a JSON content type
// whenever a body is present. Wallet SDKs send the signed envelope as JSON,
// sometimes with a charset parameter.
func JSONBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				refuse(w, http.StatusRequestEntityTooLarge, "Payload Too Large - the signed request exceeds the size limit.")
				return
			}
			if r.ContentLength != 0 {
				mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if err != nil || mt != "application/json" {
					refuse(w, http.StatusUnsupportedMediaType, "Unsupported Media Type - send application/json.")
					return
				}
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// refuse writes the {"message": ...} body the handlers use for refusals.
func refuse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
