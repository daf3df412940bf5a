package ops

import (
	"context"
	"testing"
)

func TestList_Pagination(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	for _, name := range []string{"a", "b", "c"} {
		if _, err := Store(ctx, database, nil, StoreInput{Workspace: "ws", Name: name, Body: "body " + name}); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}
	if _, err := Store(ctx, database, nil, StoreInput{Workspace: "other", Body: "elsewhere"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	page, err := List(ctx, database, ListInput{Workspace: "WS", Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 2 || !page.Pagination.HasMore || page.Pagination.Total != 3 {
		t.Errorf("page 1 = %d items, has_more=%v, total=%d", len(page.Items), page.Pagination.HasMore, page.Pagination.Total)
	}
	if page.Sort != "updated_at_desc" {
		t.Errorf("Sort = %q", page.Sort)
	}

	page, err = List(ctx, database, ListInput{Workspace: "ws", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 1 || page.Pagination.HasMore {
		t.Errorf("page 2 = %d items, has_more=%v", len(page.Items), page.Pagination.HasMore)
	}
}

func TestList_Summaries(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	if _, err := Store(ctx, database, nil, StoreInput{Name: "Plan", Body: "héllo", Tags: []string{"x"}}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	out, err := List(ctx, database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 1 {
		t.Fatalf("Items = %d, want 1", len(out.Items))
	}
	s := out.Items[0]
	if s.Name == nil || *s.Name != "Plan" {
		t.Errorf("Name = %v, want Plan", s.Name)
	}
	if s.BodyBytes != 6 || s.BodyChars != 5 {
		t.Errorf("BodyBytes/BodyChars = %d/%d, want 6/5", s.BodyBytes, s.BodyChars)
	}
	if len(s.Tags) != 1 || s.Tags[0] != "x" {
		t.Errorf("Tags = %v, want [x]", s.Tags)
	}
}

func TestList_DefaultsAndClamping(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	out, err := List(ctx, database, ListInput{Limit: 1000, Offset: -5})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Items == nil {
		t.Error("Items = nil, want empty slice")
	}
	if out.Pagination.Limit != MaxListLimit || out.Pagination.Offset != 0 {
		t.Errorf("Limit/Offset = %d/%d, want %d/0", out.Pagination.Limit, out.Pagination.Offset, MaxListLimit)
	}

	out, err = List(ctx, database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Limit != DefaultListLimit {
		t.Errorf("Limit = %d, want %d", out.Pagination.Limit, DefaultListLimit)
	}
}

func TestList_IncludeDeleted(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	stored, err := Store(ctx, database, nil, StoreInput{Body: "x"})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, err := Delete(ctx, database, DeleteInput{ID: stored.ID}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	out, err := List(ctx, database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Total != 0 {
		t.Errorf("Total = %d, want 0", out.Pagination.Total)
	}
	out, err = List(ctx, database, ListInput{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Total != 1 || out.Items[0].DeletedAt == nil {
		t.Errorf("IncludeDeleted: total=%d", out.Pagination.Total)
	}
}
