// Command chesscore serves the line protocol on stdin and stdout. The
// opening book is loaded from the store and finished games are recorded
// back into it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/game"
	"github.com/hailam/chesscore/internal/protocol"
	"github.com/hailam/chesscore/internal/stats"
	"github.com/hailam/chesscore/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "chesscore:", err)
		os.Exit(1)
	}
}

type config struct {
	dir        string
	inMemory   bool
	verbose    bool
	minPlies   int
	cpuprofile string
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("chesscore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.dir, "db", "", "database directory (default: platform data dir)")
	fs.BoolVar(&cfg.inMemory, "mem", false, "use an in-memory database")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")
	fs.IntVar(&cfg.minPlies, "min-plies", game.DefaultDrawRules().MinPlies, "plies before repetition and fifty-move draws apply")
	fs.StringVar(&cfg.cpuprofile, "cpuprofile", "", "write cpu profile to file")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.cpuprofile == "" {
		cfg.cpuprofile = os.Getenv("CPUPROFILE")
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if cfg.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	if cfg.cpuprofile != "" {
		f, err := os.Create(cfg.cpuprofile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", cfg.cpuprofile).Msg("cpu profiling enabled")
	}

	store, err := storage.Open(storage.Options{
		Dir:      cfg.dir,
		InMemory: cfg.inMemory,
		Logger:   log.Level(zerolog.WarnLevel),
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	b := book.New(book.WithLogger(log))
	if err := b.Load(store); err != nil {
		log.Warn().Err(err).Msg("book not loaded")
	}
	log.Debug().Int("positions", b.Size()).Msg("book loaded")

	rules := game.DefaultDrawRules()
	rules.MinPlies = cfg.minPlies

	session := protocol.New(stdout,
		protocol.WithLogger(log),
		protocol.WithDrawRules(rules),
		protocol.WithBook(b),
		protocol.WithRecorder(stats.NewRecorder(store, log)),
		protocol.WithStats(store),
	)
	return session.Run(ctx, stdin)
}
