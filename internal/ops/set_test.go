package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/capped/internal/errors"
)

func TestSet_Fields(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	cfg := smallConfig()

	stored, err := Store(ctx, database, cfg, StoreInput{Name: "plan", Body: "draft", Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	out, err := Set(ctx, database, cfg, SetInput{
		Name:  "plan",
		Body:  ptr("final"),
		Title: ptr("Plan v2"),
		Tags:  ptr([]string{"b", "c"}),
	})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if out.ID != stored.ID {
		t.Errorf("ID = %q, want %q", out.ID, stored.ID)
	}
	if out.Remaining != 11 {
		t.Errorf("Remaining = %d, want 11", out.Remaining)
	}

	got, err := Fetch(ctx, database, cfg, FetchInput{ID: stored.ID})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if *got.Body != "final" || got.Title != "Plan v2" {
		t.Errorf("Body/Title = %q/%q", *got.Body, got.Title)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "b" || got.Tags[1] != "c" {
		t.Errorf("Tags = %v, want [b c]", got.Tags)
	}
}

func TestSet_OnlyTitleKeepsBody(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	cfg := smallConfig()

	stored, err := Store(ctx, database, cfg, StoreInput{Body: "keep me"})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, err := Set(ctx, database, cfg, SetInput{ID: stored.ID, Title: ptr("titled")}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := Fetch(ctx, database, cfg, FetchInput{ID: stored.ID})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if *got.Body != "keep me" {
		t.Errorf("Body = %q, want unchanged", *got.Body)
	}
}

func TestSet_OneOversizeFieldRejectsAll(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	cfg := smallConfig()

	stored, err := Store(ctx, database, cfg, StoreInput{Body: "original", Title: "orig"})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	_, err = Set(ctx, database, cfg, SetInput{
		ID:    stored.ID,
		Body:  ptr("updated"),
		Title: ptr("a title that is too long"),
	})
	assertCapacity(t, err, "title", 12, 24)

	_, err = Set(ctx, database, cfg, SetInput{ID: stored.ID, Tags: ptr([]string{"fine", "waytoolong"})})
	assertCapacity(t, err, "tags[1]", 5, 10)

	got, err := Fetch(ctx, database, cfg, FetchInput{ID: stored.ID})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if *got.Body != "original" || got.Title != "orig" {
		t.Errorf("Body/Title = %q/%q, want unchanged", *got.Body, got.Title)
	}
}

func TestSet_InvalidInput(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	tests := []struct {
		name  string
		input SetInput
	}{
		{"no fields", SetInput{Name: "plan"}},
		{"empty body", SetInput{Name: "plan", Body: ptr("")}},
		{"no address", SetInput{Body: ptr("x")}},
		{"invalid UTF-8 body", SetInput{Name: "plan", Body: ptr("\xff")}},
		{"invalid UTF-8 title", SetInput{Name: "plan", Title: ptr("t\xff")}},
		{"invalid UTF-8 tag", SetInput{Name: "plan", Tags: ptr([]string{"\xff"})}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Set(ctx, database, nil, tc.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected INVALID_REQUEST, got: %v", err)
			}
		})
	}
}
