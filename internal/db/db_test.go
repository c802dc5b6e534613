package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/adamavenir/confab/internal/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := SetSetting(first, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	value, err := GetSetting(second, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "v" {
		t.Fatalf("expected v, got %q", value)
	}
}

func TestDrafts(t *testing.T) {
	db := openTestDB(t)
	now := time.UnixMilli(1_700_000_000_000)

	draft, err := GetDraft(db, "c1")
	if err != nil || draft != "" {
		t.Fatalf("expected no draft, got %q (%v)", draft, err)
	}

	if err := SaveDraft(db, "c1", "see @{meeting}{Standup}", now); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveDraft(db, "c1", "see @{meeting}{Retro}", now.Add(time.Second)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	draft, err = GetDraft(db, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if draft != "see @{meeting}{Retro}" {
		t.Fatalf("unexpected draft %q", draft)
	}

	if err := SaveDraft(db, "c1", "  \n", now); err != nil {
		t.Fatalf("save blank: %v", err)
	}
	draft, _ = GetDraft(db, "c1")
	if draft != "" {
		t.Fatalf("blank save should clear, got %q", draft)
	}
}

func TestRecentMentionsOrderAndPrefix(t *testing.T) {
	db := openTestDB(t)
	base := time.UnixMilli(1_700_000_000_000)

	record := func(m types.Mention, at time.Time) {
		t.Helper()
		if err := RecordMention(db, m, at); err != nil {
			t.Fatalf("record %s: %v", m.Name, err)
		}
	}
	planning := types.Mention{Type: types.MentionMeeting, ID: "m1", Name: "Sprint Planning"}
	review := types.Mention{Type: types.MentionMeeting, ID: "m2", Name: "Sprint Review"}
	notes := types.Mention{Type: types.MentionFile, ID: "f1", Name: "notes_2024.md"}
	record(planning, base)
	record(review, base.Add(time.Minute))
	record(notes, base.Add(2*time.Minute))
	record(planning, base.Add(3*time.Minute))

	ctx := context.Background()
	got, err := GetRecentMentions(ctx, db, "", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 || got[0].ID != "m1" || got[1].ID != "f1" || got[2].ID != "m2" {
		t.Fatalf("unexpected order: %+v", got)
	}

	got, err = MentionHistory{DB: db}.RecentMentions(ctx, "sprint r", 10)
	if err != nil {
		t.Fatalf("prefix: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Sprint Review" {
		t.Fatalf("unexpected prefix match: %+v", got)
	}

	// underscore is literal, not a wildcard
	got, _ = GetRecentMentions(ctx, db, "notes_", 10)
	if len(got) != 1 {
		t.Fatalf("expected literal underscore match, got %+v", got)
	}
	got, _ = GetRecentMentions(ctx, db, "notesX", 10)
	if len(got) != 0 {
		t.Fatalf("expected no match, got %+v", got)
	}

	var count int
	if err := db.QueryRow("SELECT use_count FROM recent_mentions WHERE id = 'm1'").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected use_count 2, got %d", count)
	}
}

func TestPruneMentions(t *testing.T) {
	db := openTestDB(t)
	base := time.UnixMilli(1_700_000_000_000)
	for i, id := range []string{"a", "b", "c"} {
		m := types.Mention{Type: types.MentionProject, ID: id, Name: id}
		if err := RecordMention(db, m, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	removed, err := PruneMentions(db, 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	got, _ := GetRecentMentions(context.Background(), db, "", 10)
	if len(got) != 2 || got[0].ID != "c" {
		t.Fatalf("unexpected remaining: %+v", got)
	}
}
