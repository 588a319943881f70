package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/deskcorder/internal/fileio"
	"github.com/iksnae/deskcorder/testutil"
)

func openTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Error("Open() with blank path should fail")
	}
}

func TestOpenTwiceAppliesMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	c, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Index(ctx, "a.dcb", fileio.V030, fileio.Summary{Events: 1}); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	c, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer c.Close()
	entries, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries after reopen, want 1", len(entries))
	}
}

func TestIndexAndGet(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return at }

	sum := fileio.Summary{Events: 18, Slides: 2, Strokes: 3, Points: 9, Moves: 3, Audio: 1, Duration: 4}
	e, err := c.Index(ctx, "lecture.dcx", fileio.V011, sum)
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if e.ID == "" || !filepath.IsAbs(e.Path) || e.Format != fileio.FormatXML {
		t.Errorf("entry = %+v", e)
	}

	got, err := c.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Path != e.Path || got.Version != fileio.V011 || got.Summary != sum || !got.IndexedAt.Equal(at) {
		t.Errorf("Get() = %+v, want %+v", got, e)
	}

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestReindexKeepsID(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)

	first, err := c.Index(ctx, "a.dcb", fileio.V010, fileio.Summary{Events: 1})
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Index(ctx, "a.dcb", fileio.V030, fileio.Summary{Events: 5})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("re-index changed id %s -> %s", first.ID, second.ID)
	}
	entries, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Version != fileio.V030 || entries[0].Summary.Events != 5 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestListOrdersByPath(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)
	dir := t.TempDir()
	for _, name := range []string{"c.dcb", "a.dcb", "b.dcd"} {
		if _, err := c.Index(ctx, filepath.Join(dir, name), fileio.V030, fileio.Summary{}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, filepath.Base(e.Path))
	}
	if len(names) != 3 || names[0] != "a.dcb" || names[1] != "b.dcd" || names[2] != "c.dcb" {
		t.Errorf("List() order = %v", names)
	}
	if entries[1].Format != fileio.FormatDirectory {
		t.Errorf("format = %q, want dcd", entries[1].Format)
	}
}

func TestIndexFile(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)
	path := filepath.Join(t.TempDir(), "sample.dcb")
	if err := fileio.Save(ctx, path, testutil.SampleLog(t), fileio.Options{Version: fileio.V012}); err != nil {
		t.Fatal(err)
	}

	e, err := c.IndexFile(ctx, path, fileio.Options{})
	if err != nil {
		t.Fatalf("IndexFile() error = %v", err)
	}
	if e.Version != fileio.V012 || e.Summary.Slides != 2 || e.Summary.Strokes != 3 || e.Summary.Audio != 1 {
		t.Errorf("entry = %+v", e)
	}

	if _, err := c.IndexFile(ctx, filepath.Join(t.TempDir(), "missing.dcb"), fileio.Options{}); err == nil {
		t.Error("IndexFile() on a missing file should fail")
	}
}

func TestRemoveAndPrune(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.dcb")
	if err := os.WriteFile(kept, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Index(ctx, kept, fileio.V030, fileio.Summary{}); err != nil {
		t.Fatal(err)
	}
	gone, err := c.Index(ctx, filepath.Join(dir, "gone.dcb"), fileio.V030, fileio.Summary{})
	if err != nil {
		t.Fatal(err)
	}

	pruned, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if len(pruned) != 1 || pruned[0].ID != gone.ID {
		t.Errorf("Prune() = %+v, want only %s", pruned, gone.ID)
	}

	if err := c.Remove(ctx, gone.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(pruned) error = %v, want ErrNotFound", err)
	}
	entries, _ := c.List(ctx)
	if len(entries) != 1 || entries[0].Path != kept {
		t.Errorf("entries = %+v", entries)
	}
}

func TestUpSection(t *testing.T) {
	in := "-- header\n-- +migrate Up\nCREATE TABLE x (a);\n-- +migrate Down\nDROP TABLE x;\n"
	if got := upSection(in); got != "\nCREATE TABLE x (a);\n" {
		t.Errorf("upSection() = %q", got)
	}
	if got := upSection("SELECT 1;"); got != "SELECT 1;" {
		t.Errorf("upSection() without markers = %q", got)
	}
}
