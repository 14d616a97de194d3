package main

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/diamondburned/smolpost/client"
	"github.com/diamondburned/smolpost/server"
	"github.com/diamondburned/smolpost/server/http/upload"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"

	toml "github.com/pelletier/go-toml"
)

var (
	configGlob = "./config*.toml"
	debugMode  = false
	serveMode  = false
	address    = ""
)

func stderrlnf(f string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, f+"\n", v...)
}

type Config struct {
	Address    string `toml:"address"`
	SocketPath string `toml:"socketPath"`
	SocketPerm string `toml:"socketPerm"`

	server.Config
}

func NewConfig() Config {
	return Config{
		Config: server.NewConfig(),
	}
}

// ListenAddress returns the address to bind to. An explicit address always
// wins over the mode defaults.
func (c Config) ListenAddress(serve bool) string {
	switch {
	case c.Address != "":
		return c.Address
	case serve:
		return "0.0.0.0:80"
	default:
		return "localhost:80"
	}
}

func init() {
	pflag.StringVarP(
		&configGlob, "config", "c", configGlob,
		"Path to config file with glob support for fallback",
	)
	pflag.BoolVarP(
		&debugMode, "debug", "d", debugMode,
		"Enable request logging and the debug routes",
	)
	pflag.BoolVarP(
		&serveMode, "serve", "s", serveMode,
		"Listen on all interfaces",
	)
	pflag.StringVarP(
		&address, "address", "a", address,
		"Address to listen on, overrides the config",
	)

	pflag.Usage = func() {
		stderrlnf("Usage: %s [subcommand] [flags...]", filepath.Base(os.Args[0]))
		stderrlnf("Subcommands:")
		stderrlnf("  debug          Run the HTTP server in debug mode")
		stderrlnf("  serve          Run the HTTP server on all interfaces")
		stderrlnf("  post           Submit a post to a running server")
		stderrlnf("Flags:")
		pflag.PrintDefaults()
	}
}

func main() {
	// The post subcommand has its own flags.
	if len(os.Args) > 1 && os.Args[1] == "post" {
		if err := postMain(os.Args[2:]); err != nil {
			log.Fatalln(err)
		}
		return
	}

	pflag.Parse()

	for _, arg := range pflag.Args() {
		switch arg {
		case "debug":
			debugMode = true
		case "serve":
			serveMode = true
		default:
			pflag.Usage()
			os.Exit(2)
		}
	}

	cfg, err := loadConfig(configGlob)
	if err != nil {
		log.Fatalln(err)
	}

	if address != "" {
		cfg.Address = address
	}
	cfg.Debug = debugMode

	if err := serve(cfg); err != nil {
		log.Fatalln(err)
	}
}

func loadConfig(glob string) (Config, error) {
	var cfg = NewConfig()

	// Read all globs.
	d, err := filepath.Glob(glob)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to glob")
	}

	if len(d) == 0 {
		log.Println("No config files matched, using defaults.")
		return cfg, nil
	}

	for _, path := range d {
		f, err := ioutil.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "failed to read globbed config file")
		}

		t, err := toml.LoadBytes(f)
		if err != nil {
			return cfg, errors.Wrapf(err, "failed to load TOML %q", path)
		}

		// Workaround: Unmarshal really wants a non-nil MaxSize block, else it
		// will panic. We have to manually insert this if it's not there.
		if !t.Has("MaxSize") {
			t.SetPath([]string{"MaxSize"}, upload.MaxSize{})
		}

		if err := t.Unmarshal(&cfg); err != nil {
			return cfg, errors.Wrapf(err, "failed to unmarshal TOML %q", path)
		}
	}

	return cfg, nil
}

func listen(cfg Config) (net.Listener, error) {
	if cfg.SocketPath == "" {
		return net.Listen("tcp", cfg.ListenAddress(serveMode))
	}

	// Ensure that the socket is cleaned up in case of an unclean shutdown.
	if err := os.Remove(cfg.SocketPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(err, "failed to clean up old socket")
		}
	}

	l, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to listen to Unix socket")
	}

	if cfg.SocketPerm != "" {
		o, err := strconv.ParseUint(cfg.SocketPerm, 8, 32)
		if err != nil {
			l.Close()
			return nil, errors.Wrap(err, "failed to parse socket perm in octet")
		}
		if err := os.Chmod(cfg.SocketPath, os.FileMode(o)); err != nil {
			l.Close()
			return nil, errors.Wrap(err, "failed to chmod socket")
		}
	}

	return l, nil
}

func serve(cfg Config) error {
	a, err := server.New(cfg.Config)
	if err != nil {
		return errors.Wrap(err, "failed to create instance")
	}
	defer a.Close()

	c := middleware.NewCompressor(5)
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})

	mux := chi.NewMux()
	mux.Use(c.Handler)
	mux.Mount("/", a)

	l, err := listen(cfg)
	if err != nil {
		return err
	}

	var server = http.Server{
		Handler: mux,
	}

	// Explicitly set up HTTP/2.
	err = http2.ConfigureServer(&server, &http2.Server{
		MaxHandlers:          4096,
		MaxConcurrentStreams: 1024,
	})
	if err != nil {
		return errors.Wrap(err, "failed to configure HTTP/2 server")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Println("Starting HTTP listener at", l.Addr())

		if err := server.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "failed to serve")
		}
		return nil
	})

	g.Go(func() error {
		// Handle SIGINT and gracefully close the server.
		<-ctx.Done()

		// Give the server a 10 seconds timeout for shutting down.
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(sctx); err != nil {
			return errors.Wrap(err, "failed to gracefully close the server")
		}
		return nil
	})

	return g.Wait()
}

func postMain(args []string) error {
	var (
		host  = "http://localhost"
		title = ""
		media = ""
	)

	fs := pflag.NewFlagSet("post", pflag.ContinueOnError)
	fs.StringVarP(&host, "host", "H", host, "Base URL of the server")
	fs.StringVarP(&title, "title", "t", title, "Title of the post")
	fs.StringVarP(&media, "media", "m", media, "Path to the attached media file")
	fs.Usage = func() {
		stderrlnf("Usage: %s post [flags...] [content]", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if title == "" {
		fs.Usage()
		return errors.New("missing title")
	}

	c, err := client.NewClient(host)
	if err != nil {
		return err
	}

	post := client.NewPost{
		Title:   title,
		Content: fs.Arg(0),
	}

	if media != "" {
		f, err := os.Open(media)
		if err != nil {
			return errors.Wrap(err, "failed to open media")
		}
		defer f.Close()

		post.Media = &client.Media{
			Name:   filepath.Base(media),
			Reader: f,
		}
	}

	if err := c.AddPost(post); err != nil {
		return errors.Wrap(err, "failed to add post")
	}

	page, err := c.Posts(0)
	if err != nil {
		return errors.Wrap(err, "failed to get posts")
	}

	if len(page.Posts) > 0 && page.Posts[0].Title == title {
		fmt.Println(page.Posts[0].JSON())
		return nil
	}

	return errors.New("post was not created")
}
