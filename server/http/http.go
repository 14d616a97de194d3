package http

import (
	"net/http"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/diamondburned/duration"
	"github.com/diamondburned/smolpost/server/db"
	"github.com/diamondburned/smolpost/server/http/api"
	"github.com/diamondburned/smolpost/server/http/debug"
	"github.com/diamondburned/smolpost/server/http/feed"
	"github.com/diamondburned/smolpost/server/http/internal/handler"
	"github.com/diamondburned/smolpost/server/http/internal/limread"
	"github.com/diamondburned/smolpost/server/http/internal/middleware"
	"github.com/diamondburned/smolpost/server/http/post"
	"github.com/diamondburned/smolpost/server/http/render"
	"github.com/diamondburned/smolpost/server/http/static"
	"github.com/diamondburned/smolpost/server/http/upload"
	"github.com/diamondburned/smolpost/server/http/upload/imgsrv"
	"github.com/diamondburned/smolpost/server/http/upload/imgsrv/thumbcache"
	"github.com/go-chi/chi"
	chimw "github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
)

type HTTPConfig struct {
	MaxBodySize     datasize.ByteSize `toml:"maxBodySize"`
	RootDirectory   string            `toml:"rootDirectory"`
	MediaCacheAge   string            `toml:"mediaCacheAge"`
	UploadRateLimit float64           `toml:"uploadRateLimit"`
	ThumbnailCache  string            `toml:"thumbnailCache"`

	// Debug enables the request logger and the debug routes. It is set by
	// the command line.
	Debug bool `toml:"-"`

	// inherit upload's config
	upload.UploadConfig
	render.Config

	mediaCacheAge time.Duration
}

func NewConfig() HTTPConfig {
	return HTTPConfig{
		MaxBodySize:     1 * datasize.GB,
		RootDirectory:   "root",
		MediaCacheAge:   "7d",
		UploadRateLimit: 2,
		UploadConfig:    upload.NewConfig(),
		Config:          render.NewConfig(),
	}
}

func (c *HTTPConfig) Validate() error {
	if c.MediaCacheAge == "" {
		c.MediaCacheAge = "0s"
	}

	d, err := duration.ParseDuration(c.MediaCacheAge)
	if err != nil {
		return errors.Wrap(err, "invalid media cache age")
	}
	c.mediaCacheAge = time.Duration(d)

	if err := c.Config.Validate(); err != nil {
		return err
	}

	return c.UploadConfig.Validate()
}

type Routes struct {
	http.Handler
	mw  handler.Middleware
	cfg HTTPConfig
}

// New creates the router. The config must be validated beforehand.
func New(s db.Store, cfg HTTPConfig) (*Routes, error) {
	mux := chi.NewMux()
	rts := &Routes{
		Handler: mux,
		mw:      handler.NewMiddleware(s, cfg.UploadConfig, cfg.Config),
		cfg:     cfg,
	}

	mux.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.If(cfg.Debug, chimw.Logger),
		chimw.Recoverer,
		limread.LimitBody(cfg.MaxBodySize),
	)

	mux.Get(render.CSSPath, render.ServeCSS)

	media := imgsrv.Server{
		MaxAge: cfg.mediaCacheAge,
		Cache:  thumbcache.New(cfg.ThumbnailCache),
	}
	mux.Mount("/media", imgsrv.MountMedia(rts.mw, media))
	mux.Mount("/thumbs", imgsrv.MountThumbs(rts.mw, media))
	mux.Mount("/api", api.Mount(rts.mw))

	post.Routes(mux, rts.mw, post.Config{
		RootDirectory:   cfg.RootDirectory,
		UploadRateLimit: cfg.UploadRateLimit,
	})
	feed.Routes(mux, rts.mw)

	if cfg.Debug {
		debug.Routes(mux, rts.mw)
	}

	root := static.Dir{Root: cfg.RootDirectory}
	mux.Get("/favicon.ico", rts.mw.M(root.ServeFavicon))
	mux.Get("/*", rts.mw.M(root.ServeFile))
	mux.NotFound(rts.mw.M(static.NotFound))

	return rts, nil
}
