package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/time/rate"

	"github.com/dbytex91/vidgrab/internal/formats"
)

const (
	headerAPIKey  = "X-RapidAPI-Key"
	headerAPIHost = "X-RapidAPI-Host"

	detailsPath = "/v2/video/details"
)

var (
	ErrProviderFailed = errors.New("provider: request failed")
	ErrNoVideoID      = errors.New("provider: video id is required")
)

// Provider fetches stream metadata from the paid video metadata API. Every
// call is a single attempt; failures are returned to the caller as is.
type Provider struct {
	client  *resty.Client
	limiter *rate.Limiter
}

type Option func(*Provider)

// WithRateLimit bounds outbound calls to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(p *Provider) {
		if perSecond <= 0 {
			p.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(p *Provider) {
		p.client.SetTimeout(timeout)
	}
}

func New(baseURL string, host string, apiKey string, opts ...Option) *Provider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader(headerAPIKey, apiKey).
		SetHeader(headerAPIHost, host).
		SetError(ErrorResponse{})

	p := &Provider{
		client:  client,
		limiter: rate.NewLimiter(rate.Inf, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Provider) GetVideoDetails(ctx context.Context, videoID string) (*VideoDetails, error) {
	if videoID == "" {
		return nil, ErrNoVideoID
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result := &detailsResponse{}
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("videoId", videoID).
		SetResult(result).
		Get(detailsPath)
	if err != nil {
		log.Errorf("Failed to fetch details for %s: %v", videoID, err)
		return nil, err
	}

	if resp.IsError() {
		log.Errorf("Failed to fetch details for %s, status %d: %v", videoID, resp.StatusCode(), resp.Error())
		return nil, fmt.Errorf("%w: status %d: %v", ErrProviderFailed, resp.StatusCode(), resp.Error())
	}

	if result.Status != nil && !*result.Status {
		log.Errorf("Provider rejected %s: %s", videoID, result.ErrorID)
		return nil, fmt.Errorf("%w: %s", ErrProviderFailed, result.ErrorID)
	}

	return result.details(videoID), nil
}

func (r *detailsResponse) details(videoID string) *VideoDetails {
	d := &VideoDetails{
		ID:        r.ID,
		Title:     r.Title,
		Duration:  formatDuration(string(r.LengthSeconds)),
		Thumbnail: largestThumbnail(r.Thumbnails),
		Videos:    make([]formats.StreamDescriptor, 0, len(r.Videos.Items)),
		Audios:    make([]formats.StreamDescriptor, 0, len(r.Audios.Items)),
	}
	if d.ID == "" {
		d.ID = videoID
	}

	for _, item := range r.Videos.Items {
		d.Videos = append(d.Videos, item.descriptor(false, true))
	}

	for _, item := range r.Audios.Items {
		d.Audios = append(d.Audios, item.descriptor(true, false))
	}

	return d
}

func largestThumbnail(thumbnails []thumbnail) string {
	var best *thumbnail
	for i := range thumbnails {
		t := &thumbnails[i]
		if t.URL == "" {
			continue
		}

		if best == nil || best.Width*best.Height <= t.Width*t.Height {
			best = t
		}
	}

	if best == nil {
		return ""
	}

	return best.URL
}

// formatDuration renders a length in seconds as m:ss or h:mm:ss. Values that
// are not whole seconds are passed through unchanged.
func formatDuration(raw string) string {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return raw
	}

	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%d:%02d", m, s)
}
