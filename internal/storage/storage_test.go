package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBookEntries(t *testing.T) {
	s := openTestStorage(t)

	t.Run("missing key", func(t *testing.T) {
		recs, err := s.BookEntries("nope")
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 0 {
			t.Errorf("got %v, want none", recs)
		}
	})

	t.Run("save and load", func(t *testing.T) {
		want := []BookRecord{{Move: "e2e4", Weight: 3}, {Move: "d2d4", Weight: 1}}
		if err := s.SaveBookEntries("k1", want); err != nil {
			t.Fatal(err)
		}
		got, err := s.BookEntries("k1")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("BookEntries mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		want := []BookRecord{{Move: "c2c4", Weight: 7}}
		if err := s.SaveBookEntries("k1", want); err != nil {
			t.Fatal(err)
		}
		got, _ := s.BookEntries("k1")
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("BookEntries mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestForEachBook(t *testing.T) {
	s := openTestStorage(t)

	stored := map[string][]BookRecord{
		"a k": {{Move: "e2e4", Weight: 1}},
		"b k": {{Move: "g1f3", Weight: 2}},
		"c k": {{Move: "d2d4", Weight: 5}},
	}
	for k, v := range stored {
		if err := s.SaveBookEntries(k, v); err != nil {
			t.Fatal(err)
		}
	}
	// Stats keys share the database but must not show up
	if err := s.RecordGame(DrawnGame, []MoveResult{{Key: "a k", Move: "e2e4", Result: Draw}}); err != nil {
		t.Fatal(err)
	}

	got := make(map[string][]BookRecord)
	var keys []string
	err := s.ForEachBook(func(key string, recs []BookRecord) error {
		got[key] = recs
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(stored, got); diff != "" {
		t.Errorf("ForEachBook mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a k", "b k", "c k"}, keys); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}

	stop := errors.New("stop")
	calls := 0
	err = s.ForEachBook(func(string, []BookRecord) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("ForEachBook = %v after %d calls, want stop after 1", err, calls)
	}
}

func TestRecordGame(t *testing.T) {
	s := openTestStorage(t)

	game1 := []MoveResult{
		{Key: "start", Move: "e2e4", Result: Win},
		{Key: "after e4", Move: "e7e5", Result: Loss},
	}
	game2 := []MoveResult{
		{Key: "start", Move: "e2e4", Result: Draw},
		{Key: "after e4", Move: "c7c5", Result: Draw},
	}
	game3 := []MoveResult{
		{Key: "start", Move: "d2d4", Result: Loss},
	}

	if err := s.RecordGame(WhiteWins, game1); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordGame(DrawnGame, game2); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordGame(BlackWins, game3); err != nil {
		t.Fatal(err)
	}

	ps, err := s.PositionStats("start")
	if err != nil {
		t.Fatal(err)
	}
	want := &PositionStats{
		Key: "start",
		Moves: []MoveTally{
			{Move: "e2e4", Wins: 1, Draws: 1},
			{Move: "d2d4", Losses: 1},
		},
	}
	if diff := cmp.Diff(want, ps); diff != "" {
		t.Errorf("PositionStats mismatch (-want +got):\n%s", diff)
	}
	if got := ps.Tally("e2e4").Score(); got != 0.75 {
		t.Errorf("Score(e2e4) = %v, want 0.75", got)
	}
	if got := ps.Tally("h2h4"); got.Games() != 0 {
		t.Errorf("Tally(h2h4) = %+v, want zero", got)
	}

	sum, err := s.Summary()
	if err != nil {
		t.Fatal(err)
	}
	wantSum := &Summary{GamesRecorded: 3, WhiteWins: 1, BlackWins: 1, Draws: 1, TotalPlies: 5, LongestGame: 2}
	if diff := cmp.Diff(wantSum, sum, cmpopts.IgnoreFields(Summary{}, "LastRecorded")); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
	if sum.LastRecorded.IsZero() {
		t.Error("LastRecorded not set")
	}
	if got := sum.WhiteScore(); got != 50 {
		t.Errorf("WhiteScore() = %v, want 50", got)
	}
}

func TestRecordGameRepeatedKey(t *testing.T) {
	s := openTestStorage(t)

	// The same position twice in one game
	results := []MoveResult{
		{Key: "k", Move: "g1f3", Result: Draw},
		{Key: "j", Move: "g8f6", Result: Draw},
		{Key: "k", Move: "g1f3", Result: Draw},
	}
	if err := s.RecordGame(DrawnGame, results); err != nil {
		t.Fatal(err)
	}
	ps, _ := s.PositionStats("k")
	if got := ps.Tally("g1f3").Draws; got != 2 {
		t.Errorf("Draws = %d, want 2", got)
	}
}

func TestEmptyStats(t *testing.T) {
	s := openTestStorage(t)

	ps, err := s.PositionStats("missing")
	if err != nil {
		t.Fatal(err)
	}
	if ps.Key != "missing" || len(ps.Moves) != 0 {
		t.Errorf("PositionStats = %+v, want empty", ps)
	}

	sum, err := s.Summary()
	if err != nil {
		t.Fatal(err)
	}
	if sum.GamesRecorded != 0 || sum.WhiteScore() != 0 {
		t.Errorf("Summary = %+v, want zeros", sum)
	}
}

func TestClosedStorage(t *testing.T) {
	s, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, err := s.BookEntries("k"); !errors.Is(err, ErrClosed) {
		t.Errorf("BookEntries after close = %v, want ErrClosed", err)
	}
	if err := s.RecordGame(DrawnGame, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("RecordGame after close = %v, want ErrClosed", err)
	}
}

func TestPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveBookEntries("k", []BookRecord{{Move: "e2e4", Weight: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	recs, err := s.BookEntries("k")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Move != "e2e4" {
		t.Errorf("BookEntries after reopen = %v", recs)
	}
}

func TestBadgerLogsThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	badgerLogger{log: log}.Warningf("disk %s is slow\n", "sda")
	if out := buf.String(); !strings.Contains(out, `"component":"badger"`) || !strings.Contains(out, "disk sda is slow") {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestBadgerLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	var l badger.Logger = badgerLogger{log: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	l.Errorf("e %d", 1)
	l.Warningf("w %s", "two")
	l.Infof("i %v", 3.5)
	l.Debugf("d %t\n", true)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d log lines, want 4:\n%s", len(lines), buf.String())
	}
	for i, want := range []string{`"level":"error","component":"badger","message":"e 1"`,
		`"level":"warn","component":"badger","message":"w two"`,
		`"level":"info","component":"badger","message":"i 3.5"`,
		`"level":"debug","component":"badger","message":"d true"`} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %s, want %s", i, lines[i], want)
		}
	}
}

func TestDataPaths(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvDataDir, filepath.Join(root, appName))

	dataDir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	if want := filepath.Join(root, appName); dataDir != want {
		t.Errorf("DataDir() = %s, want %s", dataDir, want)
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	dbDir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir failed: %v", err)
	}
	if filepath.Dir(dbDir) != dataDir {
		t.Errorf("DefaultDir() = %s, want it under %s", dbDir, dataDir)
	}
}

func TestDataDirFor(t *testing.T) {
	home := func() (string, error) { return "/home/u", nil }
	noHome := func() (string, error) { return "", errors.New("no home") }

	tests := []struct {
		name    string
		goos    string
		env     map[string]string
		home    func() (string, error)
		want    string
		wantErr bool
	}{
		{"override", "linux", map[string]string{EnvDataDir: "/data"}, noHome, "/data", false},
		{"xdg", "linux", map[string]string{"XDG_DATA_HOME": "/xdg"}, noHome, filepath.Join("/xdg", appName), false},
		{"linux home", "linux", nil, home, filepath.Join("/home/u", ".local", "share", appName), false},
		{"darwin", "darwin", nil, home, filepath.Join("/home/u", "Library", "Application Support", appName), false},
		{"appdata", "windows", map[string]string{"APPDATA": "/appdata"}, noHome, filepath.Join("/appdata", appName), false},
		{"windows home", "windows", nil, home, filepath.Join("/home/u", "AppData", "Roaming", appName), false},
		{"no home", "linux", nil, noHome, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			getenv := func(k string) string { return tc.env[k] }
			got, err := dataDirFor(tc.goos, getenv, tc.home)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("dataDirFor = %q, want %q", got, tc.want)
			}
		})
	}
}
