package main

import (
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"

	"github.com/dbytex91/vidgrab/internal/grabber"
	"github.com/dbytex91/vidgrab/internal/provider"
	"github.com/dbytex91/vidgrab/internal/static"
)

type config struct {
	ListenAddr     string        `env:"LISTEN_ADDR" envDefault:":7000"`
	ProviderURL    string        `env:"PROVIDER_URL" envDefault:"https://youtube-media-downloader.p.rapidapi.com"`
	ProviderHost   string        `env:"PROVIDER_HOST" envDefault:"youtube-media-downloader.p.rapidapi.com"`
	ProviderAPIKey string        `env:"PROVIDER_API_KEY"`
	ProviderRate   float64       `env:"PROVIDER_RATE" envDefault:"2"`
	ProviderBurst  int           `env:"PROVIDER_BURST" envDefault:"4"`
	CacheExpiry    time.Duration `env:"CACHE_EXPIRY" envDefault:"5m"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"20s"`
	TLSCertFile    string        `env:"TLS_CERT_FILE"`
	TLSKeyFile     string        `env:"TLS_KEY_FILE"`
}

var (
	maskedQueryPattern = regexp.MustCompile(`([?&]url=)[^&]*`)
	version            = "1.0.0"
)

func maskURL(originalURL string) string {
	return maskedQueryPattern.ReplaceAllString(originalURL, "${1}***")
}

func newApp(cfg config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "vidgrab",
		ErrorHandler: grabber.ErrorHandler,
	})
	app.Use(cors.New())
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	app.Use(logger.New(logger.Config{
		CustomTags: map[string]logger.LogFunc{
			"maskedURL": func(output logger.Buffer, c *fiber.Ctx, data *logger.Data, extraParam string) (int, error) {
				return output.WriteString(maskURL(c.OriginalURL()))
			},
		},
		Format:        "${time} | ${locals:requestid} | ${status} | ${latency} | ${ip} | ${method} | ${maskedURL} | ${error}\n",
		TimeFormat:    "15:04:05",
		TimeZone:      "Local",
		TimeInterval:  500 * time.Millisecond,
		Output:        os.Stdout,
		DisableColors: false,
	}))

	opts := []grabber.Option{
		grabber.WithName("vidgrab"),
		grabber.WithVersion(version),
		grabber.WithCacheExpiry(cfg.CacheExpiry),
		grabber.WithRequestTimeout(cfg.RequestTimeout),
	}

	// Lookups stay disabled until the provider credential is supplied
	if cfg.ProviderAPIKey != "" {
		opts = append(opts, grabber.WithProvider(provider.New(
			cfg.ProviderURL,
			cfg.ProviderHost,
			cfg.ProviderAPIKey,
			provider.WithRateLimit(cfg.ProviderRate, cfg.ProviderBurst),
			provider.WithTimeout(cfg.RequestTimeout),
		)))
	}

	g := grabber.New(opts...)

	app.Get("/", static.HandleIndex)
	g.Register(app)

	return app
}

func main() {
	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	app := newApp(cfg)

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		log.Infof("Starting HTTPS server on %s", cfg.ListenAddr)
		log.Fatal(app.ListenTLS(cfg.ListenAddr, cfg.TLSCertFile, cfg.TLSKeyFile))
	}

	log.Infof("Starting HTTP server on %s", cfg.ListenAddr)
	log.Fatal(app.Listen(cfg.ListenAddr))
}
