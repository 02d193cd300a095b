package twilio

import (
	"net/http"
	"net/url"

	"github.com/twilio/twilio-go/client"
)

// VerifySignature rejects webhook requests whose X-Twilio-Signature does not
// match. publicURL is the webhook URL as configured in Twilio; when empty the
// URL is rebuilt from the request.
func VerifySignature(authToken, publicURL string) func(http.Handler) http.Handler {
	validator := client.NewRequestValidator(authToken)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			target := publicURL
			if target == "" {
				target = requestURL(r)
			}
			if !validator.Validate(target, DecodeTwilioForm(r.PostForm), r.Header.Get("X-Twilio-Signature")) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DecodeTwilioForm extracts the POST form data into a map for convenience.
func DecodeTwilioForm(values url.Values) map[string]string {
	result := make(map[string]string, len(values))
	for key, value := range values {
		if len(value) > 0 {
			result[key] = value[0]
		}
	}
	return result
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
