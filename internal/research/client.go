package research

import (
	"github.com/go-resty/resty/v2"
)

// NewHTTPClient returns a resty client that identifies as a desktop browser.
// Deadlines come from the request context, so no client-wide timeout is set.
func NewHTTPClient(userAgent string) *resty.Client {
	return resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9,pt-BR;q=0.8").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
}
