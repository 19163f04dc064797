// Command chessbook loads opening lines written in short notation into the
// book store.
//
//	chessbook [-db DIR] [-mem] [-workers N] [-v] FILE...
//
// Each file holds one line per row, for example "e4 e5 Nf3 Nc6 Bb5". Blank
// rows and rows starting with "#" are ignored. Lines that fail to parse are
// logged and skipped.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "chessbook:", err)
		os.Exit(1)
	}
}

type config struct {
	dir      string
	inMemory bool
	workers  int
	verbose  bool
	files    []string
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("chessbook", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.dir, "db", "", "database directory (default: platform data dir)")
	fs.BoolVar(&cfg.inMemory, "mem", false, "use an in-memory database (dry run)")
	fs.IntVar(&cfg.workers, "workers", runtime.NumCPU(), "parallel line parsers")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.files = fs.Args()
	if len(cfg.files) == 0 {
		return cfg, fmt.Errorf("no input files")
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	return cfg, nil
}

// sourceLine is one candidate book line and where it came from.
type sourceLine struct {
	file string
	no   int
	text string
}

func readLines(path string) ([]sourceLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []sourceLine
	sc := bufio.NewScanner(f)
	no := 0
	for sc.Scan() {
		no++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		out = append(out, sourceLine{file: path, no: no, text: text})
	}
	return out, sc.Err()
}

// parseAll parses lines concurrently. Results are indexed like lines, with
// nil steps for lines that failed.
func parseAll(ctx context.Context, lines []sourceLine, workers int, log zerolog.Logger) ([][]book.Step, int, error) {
	results := make([][]book.Step, len(lines))
	failed := make([]bool, len(lines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, l := range lines {
		if ctx.Err() != nil {
			break
		}
		i, l := i, l
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			steps, err := book.ParseLine(l.text)
			if err != nil {
				log.Warn().Err(err).Str("file", l.file).Int("line", l.no).Msg("skipping book line")
				failed[i] = true
				return nil
			}
			results[i] = steps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	bad := 0
	for _, f := range failed {
		if f {
			bad++
		}
	}
	return results, bad, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
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

	var lines []sourceLine
	for _, path := range cfg.files {
		fl, err := readLines(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		log.Debug().Str("file", path).Int("lines", len(fl)).Msg("read book file")
		lines = append(lines, fl...)
	}

	start := time.Now()
	results, bad, err := parseAll(ctx, lines, cfg.workers, log)
	if err != nil {
		return err
	}

	// Merge in input order so weights do not depend on scheduling
	b := book.New(book.WithLogger(log))
	for _, steps := range results {
		if steps != nil {
			b.AddSteps(steps)
		}
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

	// Merge with what is already stored
	existing := book.New()
	if err := existing.Load(store); err != nil {
		return fmt.Errorf("load existing book: %w", err)
	}
	existing.Merge(b)
	if err := existing.Save(store); err != nil {
		return fmt.Errorf("save book: %w", err)
	}

	log.Info().
		Int("lines", len(lines)-bad).
		Int("skipped", bad).
		Int("positions", existing.Size()).
		Dur("elapsed", time.Since(start)).
		Msg("book updated")
	return nil
}
