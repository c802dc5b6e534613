package core

import (
	"testing"

	"github.com/adamavenir/confab/internal/types"
)

func TestParseWireTokensSingle(t *testing.T) {
	tokens := ParseWireTokens("@{meeting}{Sprint Planning}")
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	tok := tokens[0]
	if tok.Mention.Type != types.MentionMeeting {
		t.Errorf("type = %q, want meeting", tok.Mention.Type)
	}
	if tok.Mention.Name != "Sprint Planning" {
		t.Errorf("name = %q, want %q", tok.Mention.Name, "Sprint Planning")
	}
	if tok.Start != 0 || tok.End != 27 || tok.Length() != 27 {
		t.Errorf("span = [%d,%d) len %d, want [0,27) len 27", tok.Start, tok.End, tok.Length())
	}
}

func TestParseWireTokensOffsetsAreRunes(t *testing.T) {
	text := "héllo @{file}{notes.txt} and @{project}{Apollo}"
	tokens := ParseWireTokens(text)
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	runes := []rune(text)
	for _, tok := range tokens {
		got := string(runes[tok.Start:tok.End])
		if got != FormatToken(tok.Mention) {
			t.Errorf("span text = %q, want %q", got, FormatToken(tok.Mention))
		}
	}
	if tokens[0].Start != 6 {
		t.Errorf("first start = %d, want 6", tokens[0].Start)
	}
	if tokens[1].Start < tokens[0].End {
		t.Errorf("occurrences overlap: %+v", tokens)
	}
}

func TestParseWireTokensMalformed(t *testing.T) {
	tests := []string{
		"@{meeting}{unterminated",
		"@{person}{Alice}",
		"@{meeting}{}",
		"@meeting{Sprint}",
		"@{meeting {Sprint}",
		"plain text",
	}
	for _, text := range tests {
		if tokens := ParseWireTokens(text); len(tokens) != 0 {
			t.Errorf("ParseWireTokens(%q) = %+v, want none", text, tokens)
		}
	}
}

func TestParseWireTokensSkipsMalformedNeighbour(t *testing.T) {
	tokens := ParseWireTokens("@{person}{x} @{file}{a.md}")
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	if tokens[0].Mention.Name != "a.md" || tokens[0].Start != 13 {
		t.Errorf("unexpected token %+v", tokens[0])
	}
}

func TestFormatTokenSanitizes(t *testing.T) {
	got := FormatToken(types.Mention{Name: "Q{3} review\nnotes", Type: types.MentionFile})
	want := "@{file}{Q3 review notes}"
	if got != want {
		t.Errorf("FormatToken = %q, want %q", got, want)
	}
	if tokens := ParseWireTokens(got); len(tokens) != 1 {
		t.Errorf("sanitized token should parse, got %d tokens", len(tokens))
	}
}

func TestOccurrenceShape(t *testing.T) {
	tok := ParseWireTokens("see @{project}{Apollo}")[0]
	occ := tok.Occurrence()
	if occ.EntityType != types.MentionProject || occ.EntityID != "Apollo" {
		t.Errorf("unexpected occurrence %+v", occ)
	}
	if occ.OffsetStart != 4 || occ.OffsetEnd != 22 || occ.Length != 18 {
		t.Errorf("unexpected offsets %+v", occ)
	}
}

func TestTempIDs(t *testing.T) {
	a, b := GenerateTempID(), GenerateTempID()
	if a == b {
		t.Fatal("temp ids should be unique")
	}
	if !IsTempID(a) || IsTempID("msg-123") {
		t.Error("IsTempID misclassified ids")
	}
	if got := ShortID("tmp-abcd-ef", 5); got != "abcde" {
		t.Errorf("ShortID = %q", got)
	}
}

func TestReplaceWireTokens(t *testing.T) {
	got := ReplaceWireTokens("see @{meeting}{Standup} and @{file}{notes.md}", FormatShort)
	if got != "see @Standup and @notes.md" {
		t.Fatalf("unexpected replacement %q", got)
	}
	if got := ReplaceWireTokens("plain @{bogus}{x}", FormatShort); got != "plain @{bogus}{x}" {
		t.Fatalf("malformed token should be untouched, got %q", got)
	}
}
