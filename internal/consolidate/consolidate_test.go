package consolidate_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"switchlib/internal/consolidate"
	"switchlib/internal/logging"
	"switchlib/internal/progress"
	"switchlib/internal/services"
	"switchlib/internal/testsupport"
)

func TestConsolidateMovesFilesOnSameVolume(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "work", "001", "Game [0100AAAA00000000].nsp")
	testsupport.WriteFile(t, src, 64)
	dest := filepath.Join(root, "out")

	placed, err := consolidate.New(logging.NewNop()).Consolidate(context.Background(), []string{src}, dest, nil)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	want := filepath.Join(dest, "Game [0100AAAA00000000].nsp")
	if len(placed) != 1 || placed[0] != want {
		t.Fatalf("placed = %v", placed)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source moved, stat err=%v", err)
	}
}

func TestConsolidateSkipsDuplicateAndLeavesSource(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "work", "g.nsp")
	testsupport.WriteFile(t, src, 128)
	dest := filepath.Join(root, "out")
	testsupport.WriteFile(t, filepath.Join(dest, "g.nsp"), 128)

	var events []progress.Event
	placed, err := consolidate.New(logging.NewNop()).Consolidate(context.Background(), []string{src}, dest, func(e progress.Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if len(placed) != 1 || placed[0] != filepath.Join(dest, "g.nsp") {
		t.Fatalf("placed = %v", placed)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("duplicate source must stay in place: %v", err)
	}
	if len(events) != 1 || events[0].Stage != progress.StageSkipping || events[0].Percent != 100 {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestConsolidateReplacesDifferentSize(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "work", "g.nsp")
	testsupport.WriteFile(t, src, 200)
	dest := filepath.Join(root, "out")
	testsupport.WriteFile(t, filepath.Join(dest, "g.nsp"), 10)

	c := consolidate.New(logging.NewNop())
	c.ForceCopy()
	if _, err := c.Consolidate(context.Background(), []string{src}, dest, nil); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	info, err := os.Stat(filepath.Join(dest, "g.nsp"))
	if err != nil || info.Size() != 200 {
		t.Fatalf("expected replaced file of 200 bytes, got %v %v", info, err)
	}
}

func TestConsolidateCopyReportsMonotonicProgress(t *testing.T) {
	root := t.TempDir()
	files := []string{filepath.Join(root, "a.nsp"), filepath.Join(root, "b.xci")}
	for _, f := range files {
		testsupport.WriteFile(t, f, 1024)
	}
	c := consolidate.New(logging.NewNop())
	c.ForceCopy()

	var percents []int
	placed, err := c.Consolidate(context.Background(), files, filepath.Join(root, "out"), func(e progress.Event) {
		percents = append(percents, e.Percent)
	})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if len(placed) != 2 {
		t.Fatalf("placed = %v", placed)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards: %v", percents)
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Fatalf("expected to finish at 100, got %v", percents)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			t.Fatalf("copy must leave the source: %v", err)
		}
	}
}

func TestConsolidateStopsWhenCancelled(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.nsp")
	testsupport.WriteFile(t, src, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	placed, err := consolidate.New(logging.NewNop()).Consolidate(ctx, []string{src}, filepath.Join(root, "out"), nil)
	if !services.IsCancelled(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(placed) != 0 {
		t.Fatalf("nothing should be placed: %v", placed)
	}
}

func TestConsolidateMissingSourceFails(t *testing.T) {
	root := t.TempDir()
	c := consolidate.New(logging.NewNop())
	c.ForceCopy()
	if _, err := c.Consolidate(context.Background(), []string{filepath.Join(root, "gone.nsp")}, filepath.Join(root, "out"), nil); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestConsolidateCopiesSourcesThatMustStay(t *testing.T) {
	root := t.TempDir()
	loose := filepath.Join(root, "library", "Loose [0100AAAA00000000].nsp")
	testsupport.WriteFile(t, loose, 32)

	c := consolidate.New(logging.NewNop(), consolidate.WithMovable(func(string) bool { return false }))
	placed, err := c.Consolidate(context.Background(), []string{loose}, filepath.Join(root, "out"), nil)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if len(placed) != 1 {
		t.Fatalf("placed = %v", placed)
	}
	if _, err := os.Stat(loose); err != nil {
		t.Fatalf("source outside the work directory must stay: %v", err)
	}
}
