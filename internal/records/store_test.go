package records_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"streamstrip/internal/records"
	"streamstrip/internal/testsupport"
)

func TestInsertAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := &records.CompletionRecord{
		JobID:                     "job-1",
		SourceID:                  "file-abc",
		ChatID:                    42,
		FileName:                  "clip.mp4",
		OriginalSize:              10485760,
		ProcessedSize:             8000000,
		ProcessingDurationSeconds: 2.5,
	}
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if rec.ID == 0 || rec.CompletedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned: %+v", rec)
	}

	list, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List len = %d, want 1", len(list))
	}
	got := list[0]
	if got.SourceID != "file-abc" || got.OriginalSize != 10485760 || got.ProcessedSize != 8000000 || got.ProcessingDurationSeconds != 2.5 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.CompletedAt.Equal(rec.CompletedAt) {
		t.Fatalf("CompletedAt = %v, want %v", got.CompletedAt, rec.CompletedAt)
	}
}

func TestStatsLastCompletionWithinOneSecond(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{base.Add(500 * time.Millisecond), base} {
		rec := &records.CompletionRecord{
			JobID:         fmt.Sprintf("job-%d", i),
			SourceID:      fmt.Sprintf("file-%d", i),
			OriginalSize:  100,
			ProcessedSize: 50,
			CompletedAt:   at,
		}
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := base.Add(500 * time.Millisecond)
	if !stats.HasLastCompletion || !stats.LastCompletedAt.Equal(want) {
		t.Fatalf("LastCompletedAt = %v, want %v", stats.LastCompletedAt, want)
	}
}

func TestInsertRejectsEmptySource(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.Insert(context.Background(), &records.CompletionRecord{}); err == nil {
		t.Fatal("expected error for empty source id")
	}
	if err := store.Insert(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil record")
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := &records.CompletionRecord{SourceID: fmt.Sprintf("src-%d", i), OriginalSize: 1, ProcessedSize: 1, CompletedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	list, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].SourceID != "src-4" || list[2].SourceID != "src-2" {
		t.Fatalf("unexpected order: %+v", list)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Jobs != 5 || stats.OriginalBytes != 5 || !stats.HasLastCompletion || !stats.LastCompletedAt.Equal(base.Add(4*time.Minute)) {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestConcurrentInserts(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	const workers = 8
	const perWorker = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				rec := &records.CompletionRecord{SourceID: fmt.Sprintf("w%d-%d", w, i), OriginalSize: 2, ProcessedSize: 1, ProcessingDurationSeconds: 0.1}
				if err := store.Insert(ctx, rec); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent insert: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Jobs != workers*perWorker {
		t.Fatalf("Jobs = %d, want %d", stats.Jobs, workers*perWorker)
	}
}

func TestLinksArePerUserAndOrdered(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, link := range []string{"https://a.example", "https://b.example"} {
		if _, err := store.AddLink(ctx, 1, link); err != nil {
			t.Fatalf("AddLink: %v", err)
		}
	}
	if _, err := store.AddLink(ctx, 2, "http://other.example/x"); err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	links, err := store.Links(ctx, 1)
	if err != nil {
		t.Fatalf("Links: %v", err)
	}
	if len(links) != 2 || links[0].URL != "https://a.example" || links[1].URL != "https://b.example" {
		t.Fatalf("unexpected links: %+v", links)
	}
	others, _ := store.Links(ctx, 2)
	if len(others) != 1 {
		t.Fatalf("user 2 links = %d, want 1", len(others))
	}
	none, _ := store.Links(ctx, 3)
	if len(none) != 0 {
		t.Fatalf("user 3 links = %d, want 0", len(none))
	}
}

func TestAddLinkValidates(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	for _, bad := range []string{"", "   ", "not a url", "ftp://example.com", "https://"} {
		if _, err := store.AddLink(context.Background(), 1, bad); !errors.Is(err, records.ErrInvalidLink) {
			t.Fatalf("AddLink(%q) err = %v, want ErrInvalidLink", bad, err)
		}
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := records.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := records.Open(cfg); !errors.Is(err, records.ErrSchemaMismatch) {
		t.Fatalf("Open err = %v, want ErrSchemaMismatch", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := records.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Insert(context.Background(), &records.CompletionRecord{SourceID: "x", OriginalSize: 1, ProcessedSize: 1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	store.Close()

	reopened := testsupport.MustOpenStore(t, cfg)
	list, err := reopened.List(context.Background(), 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("List after reopen = %v, %v", list, err)
	}
}
