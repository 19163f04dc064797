package storage

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Storage keys
const (
	prefixBook  = "book/"
	prefixStats = "stats/"
	keySummary  = "summary"
)

// ErrClosed is returned by operations on a closed Storage.
var ErrClosed = errors.New("storage closed")

// Options configures Open.
type Options struct {
	// Dir holds the database files. Empty means DefaultDir().
	Dir string

	// InMemory keeps everything in memory and ignores Dir.
	InMemory bool

	// Logger receives Badger's own log output. The zero value discards it.
	Logger zerolog.Logger
}

// BookRecord is one stored book move for a normalized position key.
// Move is in coordinate form in the normalized frame.
type BookRecord struct {
	Move   string `json:"move"`
	Weight uint16 `json:"weight"`
}

// Result is a game result from one side's point of view.
type Result int

const (
	Loss Result = iota
	Draw
	Win
)

// Outcome is the result of a finished game.
type Outcome int

const (
	WhiteWins Outcome = iota
	BlackWins
	DrawnGame
)

func (o Outcome) String() string {
	switch o {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	default:
		return "1/2-1/2"
	}
}

// MoveResult is one ply of a finished game: the normalized position key,
// the normalized move played, and how the game went for the player who made it.
type MoveResult struct {
	Key    string
	Move   string
	Result Result
}

// MoveTally aggregates results for a move from a position.
type MoveTally struct {
	Move   string `json:"move"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
}

// Games returns the number of games the move was played in.
func (m MoveTally) Games() int {
	return m.Wins + m.Losses + m.Draws
}

// Score returns the mover's score as a fraction in [0,1], counting draws as half.
func (m MoveTally) Score() float64 {
	if m.Games() == 0 {
		return 0
	}
	return (float64(m.Wins) + float64(m.Draws)/2) / float64(m.Games())
}

// PositionStats holds every move recorded from one normalized position.
type PositionStats struct {
	Key   string      `json:"key"`
	Moves []MoveTally `json:"moves"`
}

// Tally returns the tally for move, or a zero tally.
func (ps *PositionStats) Tally(move string) MoveTally {
	for _, m := range ps.Moves {
		if m.Move == move {
			return m
		}
	}
	return MoveTally{Move: move}
}

func (ps *PositionStats) add(move string, r Result) {
	i := 0
	for ; i < len(ps.Moves); i++ {
		if ps.Moves[i].Move == move {
			break
		}
	}
	if i == len(ps.Moves) {
		ps.Moves = append(ps.Moves, MoveTally{Move: move})
	}
	switch r {
	case Win:
		ps.Moves[i].Wins++
	case Loss:
		ps.Moves[i].Losses++
	default:
		ps.Moves[i].Draws++
	}
}

// Summary stores totals across all recorded games.
type Summary struct {
	GamesRecorded int       `json:"games_recorded"`
	WhiteWins     int       `json:"white_wins"`
	BlackWins     int       `json:"black_wins"`
	Draws         int       `json:"draws"`
	TotalPlies    int       `json:"total_plies"`
	LongestGame   int       `json:"longest_game"`
	LastRecorded  time.Time `json:"last_recorded"`
}

// WhiteScore returns White's score as a percentage (0-100).
func (s *Summary) WhiteScore() float64 {
	if s.GamesRecorded == 0 {
		return 0
	}
	return (float64(s.WhiteWins) + float64(s.Draws)/2) / float64(s.GamesRecorded) * 100
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens or creates the database described by opts.
func Open(opts Options) (*Storage, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := opts.Dir
		if dir == "" {
			var err error
			if dir, err = DefaultDir(); err != nil {
				return nil, err
			}
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts.Logger = badgerLogger{log: opts.Logger}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// SaveBookEntries replaces the book moves stored for a normalized key.
func (s *Storage) SaveBookEntries(key string, recs []BookRecord) error {
	if s.db == nil {
		return ErrClosed
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixBook+key), data)
	})
}

// BookEntries loads the book moves for a normalized key. A missing key gives
// an empty result.
func (s *Storage) BookEntries(key string) ([]BookRecord, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	var recs []BookRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixBook + key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &recs)
		})
	})

	return recs, err
}

// ForEachBook calls fn for every stored book position in key order. An error
// from fn stops the walk and is returned.
func (s *Storage) ForEachBook(fn func(key string, recs []BookRecord) error) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixBook)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), prefixBook)

			var recs []BookRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &recs)
			}); err != nil {
				return err
			}
			if err := fn(key, recs); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordGame adds one finished game to the statistics: every ply's tally and
// the summary are updated in a single transaction.
func (s *Storage) RecordGame(outcome Outcome, results []MoveResult) error {
	if s.db == nil {
		return ErrClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		byKey := make(map[string]*PositionStats)
		var order []string
		for _, r := range results {
			ps, ok := byKey[r.Key]
			if !ok {
				ps = &PositionStats{Key: r.Key}
				if err := getJSON(txn, prefixStats+r.Key, ps); err != nil {
					return err
				}
				byKey[r.Key] = ps
				order = append(order, r.Key)
			}
			ps.add(r.Move, r.Result)
		}
		for _, key := range order {
			if err := setJSON(txn, prefixStats+key, byKey[key]); err != nil {
				return err
			}
		}

		var sum Summary
		if err := getJSON(txn, keySummary, &sum); err != nil {
			return err
		}
		sum.GamesRecorded++
		sum.TotalPlies += len(results)
		if len(results) > sum.LongestGame {
			sum.LongestGame = len(results)
		}
		switch outcome {
		case WhiteWins:
			sum.WhiteWins++
		case BlackWins:
			sum.BlackWins++
		default:
			sum.Draws++
		}
		sum.LastRecorded = time.Now()
		return setJSON(txn, keySummary, &sum)
	})
}

// PositionStats loads the move tallies for a normalized key. A missing key
// gives empty stats.
func (s *Storage) PositionStats(key string) (*PositionStats, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	ps := &PositionStats{Key: key}
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixStats+key, ps)
	})
	return ps, err
}

// Summary loads the totals, returning zeros if nothing has been recorded.
func (s *Storage) Summary() (*Summary, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	sum := &Summary{}
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, keySummary, sum)
	})
	return sum, err
}

// getJSON decodes the value at key into v, leaving v untouched if the key is absent.
func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}
