// Package source holds the helpers shared by every platform adapter:
// HTTP status classification and text/time/count normalization. The
// adapter interface itself lives with its consumer in internal/service.
package source

import (
	"fmt"
	"net/http"

	"content_aggregator/internal/domain"
)

// StatusError classifies a non-200 HTTP status into the adapter error
// taxonomy. 412 and 418 are included because several platforms answer
// throttled clients with them instead of 429.
func StatusError(platform domain.Platform, status int) error {
	err := fmt.Errorf("unexpected status: %d", status)
	switch status {
	case http.StatusNotFound, http.StatusGone:
		return domain.NewAdapterError(platform, domain.ErrNotFound, err)
	case http.StatusTooManyRequests, http.StatusPreconditionFailed, http.StatusTeapot:
		return domain.NewAdapterError(platform, domain.ErrRateLimited, err)
	default:
		return domain.NewAdapterError(platform, domain.ErrTransient, err)
	}
}
