package feedclient

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultDebounce is the quiet period of search input when the page does not
// declare one.
const DefaultDebounce = 200 * time.Millisecond

// Option configures a Controller.
type Option interface {
	apply(*controllerConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*controllerConfig)

func (f optionFunc) apply(c *controllerConfig) { f(c) }

type controllerConfig struct {
	feedName   string
	debounce   time.Duration
	history    func(query string)
	logger     *slog.Logger
	httpClient *http.Client
}

// WithFeedName selects the feed form by name when a page holds several.
func WithFeedName(name string) Option {
	return optionFunc(func(c *controllerConfig) {
		c.feedName = name
	})
}

// WithDebounce overrides the search quiet period.
func WithDebounce(d time.Duration) Option {
	return optionFunc(func(c *controllerConfig) {
		c.debounce = d
	})
}

// WithHistory receives the shareable query string after every applied
// response, the way a browser would push it to the address bar. Without it
// the visible URL is never updated.
func WithHistory(fn func(query string)) Option {
	return optionFunc(func(c *controllerConfig) {
		c.history = fn
	})
}

// WithLogger sets a structured logger for debounced submissions.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *controllerConfig) {
		c.logger = l
	})
}

// WithHTTPClient sets the HTTP client used by Open.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *controllerConfig) {
		c.httpClient = hc
	})
}
