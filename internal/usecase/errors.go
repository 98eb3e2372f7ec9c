package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Scrape failures. Renderers and parsers wrap these so triggers can decide
// on retries and callers can tell the causes apart.
var (
	ErrRendererUnavailable = errors.New("no page renderer available: set RENDER_PROXY_API_KEY or install chromium (check BROWSER_BIN and the deployment packages)")
	ErrSessionUnavailable  = errors.New("browser session unavailable")
	ErrTableNotFound       = errors.New("standings table not found in page markup (page may need javascript rendering or its layout changed)")
	ErrNoTeamsParsed       = errors.New("standings table parsed but zero teams found")
	ErrTimeout             = errors.New("request timed out")
	ErrRendererCircuitOpen = errors.New("render proxy paused after repeated failures; retry later")
)

// IsRetryableScrapeError reports whether one fresh-session retry is allowed.
func IsRetryableScrapeError(err error) bool {
	return errors.Is(err, ErrSessionUnavailable) || errors.Is(err, ErrTableNotFound)
}
