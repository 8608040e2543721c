package grabber

import "time"

func WithName(name string) Option {
	return func(g *Grabber) {
		g.name = name
	}
}

func WithVersion(version string) Option {
	return func(g *Grabber) {
		g.version = version
	}
}

// WithProvider sets the source of video details. Without one every lookup
// answers that the service is not configured.
func WithProvider(fetcher DetailsFetcher) Option {
	return func(g *Grabber) {
		g.fetcher = fetcher
	}
}

// WithCacheExpiry sets how long a provider document is reused. Zero or less
// disables caching.
func WithCacheExpiry(expiry time.Duration) Option {
	return func(g *Grabber) {
		g.cacheExpiry = expiry
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(g *Grabber) {
		if timeout > 0 {
			g.requestTimeout = timeout
		}
	}
}
