package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "datastore.json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCommandHistory(t *testing.T) {
	s := newStorage(t)

	empty, err := s.FetchCommandHistory("guild")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Fatalf("fresh guild has %d records", len(empty))
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := s.AppendCommandToHistory("guild", CommandHistoryRecord{UserID: "u1", Command: "music", Param: "play", Datetime: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendCommandToHistory("other", CommandHistoryRecord{UserID: "u2", Command: "music", Param: "stop"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.FetchCommandHistory("guild")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].UserID != "u1" || got[0].Param != "play" || !got[0].Datetime.Equal(now) {
		t.Errorf("history = %+v", got)
	}
}

func TestCommandHistoryLimit(t *testing.T) {
	s := newStorage(t)

	for i := range commandHistoryLimit + 5 {
		if err := s.AppendCommandToHistory("guild", CommandHistoryRecord{Param: fmt.Sprint(i)}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.FetchCommandHistory("guild")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != commandHistoryLimit {
		t.Fatalf("kept %d records, want %d", len(got), commandHistoryLimit)
	}
	if got[0].Param != "5" || got[len(got)-1].Param != fmt.Sprint(commandHistoryLimit+4) {
		t.Errorf("kept %s..%s", got[0].Param, got[len(got)-1].Param)
	}
}

func TestCommandHashes(t *testing.T) {
	s := newStorage(t)

	hashes, err := s.CommandHashes("global")
	if err != nil {
		t.Fatal(err)
	}
	if len(hashes) != 0 {
		t.Fatalf("fresh scope has hashes: %v", hashes)
	}

	if err := s.SetCommandHashes("global", map[string]string{"music": "abc"}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendCommandToHistory("global", CommandHistoryRecord{Command: "music"}); err != nil {
		t.Fatal(err)
	}

	hashes, err = s.CommandHashes("global")
	if err != nil {
		t.Fatal(err)
	}
	if hashes["music"] != "abc" {
		t.Errorf("hashes = %v", hashes)
	}
}
