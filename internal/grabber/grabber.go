package grabber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/singleflight"

	"github.com/dbytex91/vidgrab/internal/formats"
	"github.com/dbytex91/vidgrab/internal/pipe"
	"github.com/dbytex91/vidgrab/internal/provider"
	"github.com/dbytex91/vidgrab/internal/youtube"
)

const (
	cacheSize             = 64 * 1024 * 1024 // 64MB, entries up to 64KB
	defaultCacheExpiry    = 5 * time.Minute
	defaultRequestTimeout = 20 * time.Second
	maxFileNameLength     = 120

	partVideo = "video"
	partAudio = "audio"

	msgEmptyURL       = "Please enter a valid URL"
	msgInvalidURL     = "Invalid YouTube URL"
	msgFetchFailed    = "Failed to fetch video details. Please try again."
	msgUnexpected     = "Something went wrong. Please try again."
	msgNotConfigured  = "Video lookups are not configured on this server."
	msgOptionNotFound = "Download option not found"

	mergeHint = "This quality comes as two files. Download both, then merge the video and audio with a tool such as ffmpeg."
)

var (
	errEmptyURL       = errors.New("empty url")
	errInvalidURL     = errors.New("unrecognised video url")
	errFetchFailed    = errors.New("fetching video details failed")
	errNotConfigured  = errors.New("no provider configured")
	errOptionNotFound = errors.New("download option not found")
	errNoResult       = errors.New("lookup produced no result")

	unsafeFileChars = regexp.MustCompile(`[\\/:*?"<>|]+`)
)

// DetailsFetcher loads the provider document for a video id.
type DetailsFetcher interface {
	GetVideoDetails(ctx context.Context, videoID string) (*provider.VideoDetails, error)
}

// Grabber serves format lookups and download redirects for YouTube videos.
type Grabber struct {
	name        string
	version     string
	description string

	fetcher        DetailsFetcher
	cache          *freecache.Cache
	cacheExpiry    time.Duration
	requestTimeout time.Duration
	lookups        singleflight.Group
}

type Option func(*Grabber)

type lookupRecord struct {
	ctx     context.Context
	RawURL  string
	VideoID string
	Details *provider.VideoDetails
	Options []formats.RankedOption
}

func New(opts ...Option) *Grabber {
	g := &Grabber{
		description:    "Lists the downloadable formats of a YouTube video",
		cache:          freecache.NewCache(cacheSize),
		cacheExpiry:    defaultCacheExpiry,
		requestTimeout: defaultRequestTimeout,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.fetcher == nil {
		log.Warn("No provider configured. Lookups will fail until PROVIDER_API_KEY is set.")
	}

	return g
}

// Register mounts the API and download routes.
func (g *Grabber) Register(router fiber.Router) {
	router.Get("/api/status", g.HandleStatus)
	router.Get("/api/formats", g.HandleLookup)
	router.Get("/download/:videoID/:index/:part", g.HandleDownload)
}

func (g *Grabber) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Name:               g.name,
		Version:            g.version,
		Description:        g.description,
		ProviderConfigured: g.fetcher != nil,
	})
}

func (g *Grabber) HandleLookup(c *fiber.Ctx) error {
	rawURL := strings.TrimSpace(c.Query("url"))
	if rawURL == "" {
		return respondError(c, errEmptyURL)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), g.requestTimeout)
	defer cancel()

	p := pipe.New(func() ([]*lookupRecord, error) {
		return []*lookupRecord{{ctx: ctx, RawURL: rawURL}}, nil
	})
	p.Map(g.resolveVideoID)
	p.Map(g.fetchDetails)
	p.Map(g.rankOptions)

	record, err := sinkLookup(ctx, p)
	if err != nil {
		return respondError(c, err)
	}

	log.Infof("Lookup of %s completed with %d options", record.VideoID, len(record.Options))

	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(lookupResponse(c.BaseURL(), record))
}

func (g *Grabber) HandleDownload(c *fiber.Ctx) error {
	videoID := c.Params("videoID")
	part := strings.ToLower(c.Params("part"))
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 || !youtube.IsVideoID(videoID) || (part != partVideo && part != partAudio) {
		return respondError(c, errOptionNotFound)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), g.requestTimeout)
	defer cancel()

	details, err := g.videoDetails(ctx, videoID)
	if err != nil {
		return respondError(c, err)
	}

	options := formats.Reconcile(details.Videos, details.Audios)
	if index >= len(options) {
		return respondError(c, errOptionNotFound)
	}

	option := options[index]
	streamURL := option.Video.URL
	if part == partAudio {
		if option.Audio == nil {
			return respondError(c, errOptionNotFound)
		}
		streamURL = option.Audio.URL
	}

	if streamURL == "" {
		log.Warnf("Option %d of %s has no %s URL", index, videoID, part)
		return respondError(c, errOptionNotFound)
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Redirect(streamURL, fiber.StatusFound)
}

// ErrorHandler answers unhandled errors and recovered panics with the same
// JSON shape as the handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: fiberErr.Message})
	}

	log.Errorf("Unhandled error on %s: %v", c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: msgUnexpected})
}

func (g *Grabber) resolveVideoID(r *lookupRecord) (*lookupRecord, error) {
	videoID, ok := youtube.ExtractVideoID(r.RawURL)
	if !ok {
		return nil, errInvalidURL
	}

	r.VideoID = videoID
	return r, nil
}

func (g *Grabber) fetchDetails(r *lookupRecord) (*lookupRecord, error) {
	details, err := g.videoDetails(r.ctx, r.VideoID)
	if err != nil {
		return nil, err
	}

	r.Details = details
	return r, nil
}

func (g *Grabber) rankOptions(r *lookupRecord) (*lookupRecord, error) {
	r.Options = formats.Reconcile(r.Details.Videos, r.Details.Audios)
	return r, nil
}

func sinkLookup(ctx context.Context, p *pipe.Pipe[lookupRecord]) (*lookupRecord, error) {
	var result *lookupRecord
	err := p.SinkContext(ctx, func(r *lookupRecord) error {
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result == nil {
		return nil, errNoResult
	}

	return result, nil
}

// videoDetails returns the cached provider document for videoID or fetches
// it. Concurrent fetches of the same id share one provider call.
func (g *Grabber) videoDetails(ctx context.Context, videoID string) (*provider.VideoDetails, error) {
	if g.fetcher == nil {
		return nil, errNotConfigured
	}

	if details, ok := g.cachedDetails(videoID); ok {
		return details, nil
	}

	v, err, shared := g.lookups.Do(videoID, func() (interface{}, error) {
		details, err := g.fetcher.GetVideoDetails(ctx, videoID)
		if err != nil {
			return nil, err
		}

		g.cacheDetails(videoID, details)
		return details, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFetchFailed, err)
	}

	if shared {
		log.Debugf("Shared in-flight lookup of %s", videoID)
	}

	return v.(*provider.VideoDetails), nil
}

func (g *Grabber) cacheExpirySeconds() int {
	return int(g.cacheExpiry / time.Second)
}

func (g *Grabber) cachedDetails(videoID string) (*provider.VideoDetails, bool) {
	if g.cacheExpirySeconds() < 1 {
		return nil, false
	}

	raw, err := g.cache.Get([]byte(videoID))
	if err != nil {
		return nil, false
	}

	details := &provider.VideoDetails{}
	if err := json.Unmarshal(raw, details); err != nil {
		log.Warnf("Dropping unreadable cache entry for %s: %v", videoID, err)
		g.cache.Del([]byte(videoID))
		return nil, false
	}

	return details, true
}

func (g *Grabber) cacheDetails(videoID string, details *provider.VideoDetails) {
	expiry := g.cacheExpirySeconds()
	if expiry < 1 {
		return
	}

	raw, err := json.Marshal(details)
	if err != nil {
		log.Warnf("Failed to encode details of %s for caching: %v", videoID, err)
		return
	}

	if err := g.cache.Set([]byte(videoID), raw, expiry); err != nil {
		log.Warnf("Failed to cache details of %s: %v", videoID, err)
	}
}

func respondError(c *fiber.Ctx, err error) error {
	status, message := failure(err)
	if status >= fiber.StatusInternalServerError {
		log.WithContext(c.Context()).Errorf("Request %s failed: %v", c.Path(), err)
	} else {
		log.Infof("Rejected %s: %v", c.Path(), err)
	}

	return c.Status(status).JSON(ErrorResponse{Error: message})
}

func failure(err error) (int, string) {
	switch {
	case errors.Is(err, errEmptyURL):
		return fiber.StatusBadRequest, msgEmptyURL
	case errors.Is(err, errInvalidURL):
		return fiber.StatusBadRequest, msgInvalidURL
	case errors.Is(err, errOptionNotFound):
		return fiber.StatusNotFound, msgOptionNotFound
	case errors.Is(err, errNotConfigured):
		return fiber.StatusServiceUnavailable, msgNotConfigured
	case errors.Is(err, errFetchFailed), errors.Is(err, pipe.ErrTimeout):
		return fiber.StatusBadGateway, msgFetchFailed
	default:
		return fiber.StatusInternalServerError, msgUnexpected
	}
}

func lookupResponse(baseURL string, r *lookupRecord) LookupResponse {
	items := make([]OptionItem, 0, len(r.Options))
	for i, o := range r.Options {
		item := OptionItem{
			Index:      i,
			Label:      o.Label,
			Extension:  o.Extension,
			Size:       o.Size,
			SizeText:   formats.FormatByteSize(o.Size),
			HasAudio:   o.HasAudio,
			IsCombined: o.IsCombined,
		}

		if o.Audio == nil {
			item.Downloads = []DownloadItem{{
				Part:     partVideo,
				URL:      downloadURL(baseURL, r.VideoID, i, partVideo),
				FileName: fileName(r.Details.Title, o.Label, o.Extension),
			}}
		} else {
			audioExt := o.Audio.Extension
			if audioExt == "" {
				audioExt = formats.DefaultAudioExtension
			}

			item.Downloads = []DownloadItem{
				{
					Part:     partVideo,
					URL:      downloadURL(baseURL, r.VideoID, i, partVideo),
					FileName: fileName(r.Details.Title, videoPartTag(o.Video), o.Extension),
				},
				{
					Part:     partAudio,
					URL:      downloadURL(baseURL, r.VideoID, i, partAudio),
					FileName: fileName(r.Details.Title, "audio", audioExt),
				},
			}
			item.MergeHint = mergeHint
		}

		items = append(items, item)
	}

	return LookupResponse{
		VideoID:   r.VideoID,
		WatchURL:  youtube.WatchURL(r.VideoID),
		Title:     r.Details.Title,
		Duration:  r.Details.Duration,
		Thumbnail: r.Details.Thumbnail,
		Options:   items,
	}
}

func downloadURL(baseURL, videoID string, index int, part string) string {
	return fmt.Sprintf("%s/download/%s/%d/%s", baseURL, videoID, index, part)
}

func videoPartTag(video formats.StreamDescriptor) string {
	if video.Quality == "" {
		return "video"
	}
	return video.Quality + " video"
}

// fileName builds a download name such as "Title (720p).mp4" that is safe on
// common file systems.
func fileName(title, tag, ext string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = "video"
	}

	name = strings.TrimSpace(unsafeFileChars.ReplaceAllString(name, "_"))
	if len(name) > maxFileNameLength {
		name = strings.ToValidUTF8(name[:maxFileNameLength], "")
	}

	tag = unsafeFileChars.ReplaceAllString(tag, "_")
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = formats.DefaultVideoExtension
	}

	return fmt.Sprintf("%s (%s).%s", name, tag, ext)
}
