package extraction_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"switchlib/internal/archiveset"
	"switchlib/internal/extraction"
	"switchlib/internal/logging"
	"switchlib/internal/progress"
	"switchlib/internal/services"
	"switchlib/internal/services/sevenzip"
	"switchlib/internal/testsupport"
)

func newExtractor(t *testing.T, fake *testsupport.FakeSevenZip) *extraction.Extractor {
	t.Helper()
	client, err := sevenzip.New("7z", 5, sevenzip.WithRunner(fake))
	if err != nil {
		t.Fatalf("sevenzip.New: %v", err)
	}
	return extraction.New(client, logging.NewNop())
}

func passwordsOf(calls []testsupport.SevenZipCall) []string {
	out := make([]string, 0, len(calls))
	for _, call := range calls {
		out = append(out, call.Password)
	}
	return out
}

func TestBuildPasswordList(t *testing.T) {
	got := extraction.BuildPasswordList(" a ;b|a,, c ", []string{"gkinto.com", "b", "gamekegs.com"})
	want := []string{"a", "b", "c", "gkinto.com", "gamekegs.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BuildPasswordList = %v, want %v", got, want)
	}
	if got := extraction.BuildPasswordList("", nil); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestCandidatesPutsEmptyPasswordFirstForZip(t *testing.T) {
	zip := archiveset.Group([]string{"/s/a.zip"})[0]
	if got := extraction.Candidates(zip, []string{"x", "y"}); !reflect.DeepEqual(got, []string{"", "x", "y"}) {
		t.Fatalf("zip candidates = %q", got)
	}
	rar := archiveset.Group([]string{"/s/a.rar"})[0]
	if got := extraction.Candidates(rar, []string{"x", "y"}); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("rar candidates = %q", got)
	}
}

func TestExtractRetriesWrongPasswordAndClearsOutput(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, map[string]testsupport.FakeArchive{
		"G.rar": {Password: "second", Files: map[string]int64{"Game [0100AAAA00000000].nsp": 16}},
	})
	out := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(out, "leftover.bin"), 4)

	set := archiveset.Group([]string{"/src/G.rar"})[0]
	err := newExtractor(t, fake).Extract(context.Background(), set, out, []string{"first", "second", "third"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	calls := fake.CallsFor("x")
	attempts := len(calls)
	if attempts != 2 || !reflect.DeepEqual(passwordsOf(calls), []string{"first", "second"}) {
		t.Fatalf("unexpected attempts %+v", calls)
	}
	if _, err := os.Stat(filepath.Join(out, "leftover.bin")); !os.IsNotExist(err) {
		t.Fatalf("expected output cleared before retry, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "Game [0100AAAA00000000].nsp")); err != nil {
		t.Fatalf("expected extracted file: %v", err)
	}
}

func TestExtractZipTriesEmptyPasswordFirst(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, map[string]testsupport.FakeArchive{
		"W.zip": {Files: map[string]int64{"inner.rar": 8}},
	})
	set := archiveset.Group([]string{"/src/W.zip"})[0]
	if err := newExtractor(t, fake).Extract(context.Background(), set, t.TempDir(), []string{"p"}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := passwordsOf(fake.CallsFor("x")); !reflect.DeepEqual(got, []string{""}) {
		t.Fatalf("passwords tried = %q", got)
	}
}

func TestExtractTreatsWarningExitAsSuccess(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, nil)
	fake.Respond = func(testsupport.SevenZipCall) (sevenzip.Result, error) {
		return sevenzip.Result{ExitCode: 1, Output: "WARNING: some files skipped"}, nil
	}
	set := archiveset.Group([]string{"/src/G.rar"})[0]
	if err := newExtractor(t, fake).Extract(context.Background(), set, t.TempDir(), []string{"a", "b"}); err != nil {
		t.Fatalf("exit code 1 should succeed: %v", err)
	}
	if n := len(fake.Calls()); n != 1 {
		t.Fatalf("expected a single attempt, got %d", n)
	}
}

func TestExtractStopsOnMissingVolume(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, map[string]testsupport.FakeArchive{
		"G.part1.rar": {ExitCode: 2, FailOutput: "ERROR: Missing volume : G.part2.rar"},
	})
	set := archiveset.Group([]string{"/src/G.part1.rar"})[0]
	err := newExtractor(t, fake).Extract(context.Background(), set, t.TempDir(), []string{"a", "b", "c"})

	var archiveErr *extraction.ArchiveError
	if !errors.As(err, &archiveErr) || archiveErr.Archive != "G.part1.rar" {
		t.Fatalf("expected ArchiveError, got %v", err)
	}
	var toolErr *sevenzip.Error
	if !errors.As(err, &toolErr) || toolErr.Category != sevenzip.CategoryMissingVolume {
		t.Fatalf("expected missing volume, got %v", err)
	}
	if n := len(fake.Calls()); n != 1 {
		t.Fatalf("expected abort after first attempt, got %d calls", n)
	}
}

func TestExtractStopsWhenToolCannotLaunch(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, nil)
	fake.Respond = func(testsupport.SevenZipCall) (sevenzip.Result, error) {
		return sevenzip.Result{ExitCode: -1}, errors.New("exec: \"7z\": executable file not found")
	}
	set := archiveset.Group([]string{"/src/G.rar"})[0]
	err := newExtractor(t, fake).Extract(context.Background(), set, t.TempDir(), []string{"a", "b"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if n := len(fake.Calls()); n != 1 {
		t.Fatalf("expected one attempt, got %d", n)
	}
}

func TestExtractReportsLastErrorAfterAllPasswords(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, map[string]testsupport.FakeArchive{
		"G.rar": {Password: "nope", Files: map[string]int64{"x.nsp": 1}},
	})
	set := archiveset.Group([]string{"/src/G.rar"})[0]
	err := newExtractor(t, fake).Extract(context.Background(), set, t.TempDir(), []string{"a", "b"})
	var toolErr *sevenzip.Error
	if !errors.As(err, &toolErr) || toolErr.Category != sevenzip.CategoryWrongPassword {
		t.Fatalf("expected wrong password, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "G.rar: ") {
		t.Fatalf("error should name the archive: %q", err)
	}
	if n := len(fake.Calls()); n != 2 {
		t.Fatalf("expected one attempt per password, got %d", n)
	}
}

func TestExtractHonoursCancellation(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	set := archiveset.Group([]string{"/src/G.rar"})[0]
	err := newExtractor(t, fake).Extract(ctx, set, t.TempDir(), []string{"a"})
	if !services.IsCancelled(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if n := len(fake.Calls()); n != 0 {
		t.Fatalf("expected no tool calls, got %d", n)
	}
}

func TestExtractGameRunsNestedPass(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, map[string]testsupport.FakeArchive{
		"Outer.zip": {Files: map[string]int64{"Inner.rar": 8, "readme.txt": 2}},
		"Inner.rar": {Password: "pw", Files: map[string]int64{"Game [0100AAAA00000000].nsp": 32}},
	})
	workDir := filepath.Join(t.TempDir(), "work")
	sets := archiveset.Group([]string{"/src/Outer.zip"})

	var events []progress.Event
	result, err := newExtractor(t, fake).ExtractGame(context.Background(), sets, workDir, []string{"pw"}, func(e progress.Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("ExtractGame: %v", err)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}
	if result.NestedSets != 1 {
		t.Fatalf("expected one nested set, got %d", result.NestedSets)
	}
	if len(result.GameFiles) != 1 || filepath.Base(result.GameFiles[0]) != "Game [0100AAAA00000000].nsp" {
		t.Fatalf("unexpected game files %v", result.GameFiles)
	}
	if !strings.Contains(result.GameFiles[0], "__nested__") {
		t.Fatalf("nested output should live under the nested directory: %s", result.GameFiles[0])
	}

	var sawOuter, sawNested bool
	for _, e := range events {
		if e.Percent < 0 || e.Percent > 50 {
			t.Fatalf("extraction progress out of band: %+v", e)
		}
		sawOuter = sawOuter || e.Stage == progress.StageExtract
		sawNested = sawNested || e.Stage == progress.StageNested
	}
	if !sawOuter || !sawNested {
		t.Fatalf("expected both passes reported: %+v", events)
	}
}

func TestExtractGameKeepsGoingAfterFailedSet(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, map[string]testsupport.FakeArchive{
		"Bad.rar":  {ExitCode: 2, FailOutput: "ERROR: Data Error : x.nsp"},
		"Good.rar": {Files: map[string]int64{"Good [0100BBBB00000000].nsp": 4}},
	})
	sets := archiveset.Group([]string{"/src/Bad.rar", "/src/Good.rar"})
	result, err := newExtractor(t, fake).ExtractGame(context.Background(), sets, t.TempDir(), []string{"a"}, nil)
	if err != nil {
		t.Fatalf("ExtractGame: %v", err)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("expected one failure, got %v", result.Failures)
	}
	if len(result.GameFiles) != 1 {
		t.Fatalf("expected the good set to contribute a file, got %v", result.GameFiles)
	}
}

func TestExtractGameDoesNotRescanNestedOutput(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, map[string]testsupport.FakeArchive{
		"A.zip": {Files: map[string]int64{"B.zip": 4}},
		"B.zip": {Files: map[string]int64{"C.zip": 4}},
		"C.zip": {Files: map[string]int64{"deep.nsp": 4}},
	})
	sets := archiveset.Group([]string{"/src/A.zip"})
	result, err := newExtractor(t, fake).ExtractGame(context.Background(), sets, t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("ExtractGame: %v", err)
	}
	if len(result.GameFiles) != 0 {
		t.Fatalf("third level should stay packed, got %v", result.GameFiles)
	}
	for _, call := range fake.CallsFor("x") {
		if filepath.Base(call.Archive) == "C.zip" {
			t.Fatal("third level archive must not be extracted")
		}
	}
}

func TestExtractGameDropsPartialOutputOfFailedSet(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, nil)
	fake.Respond = func(call testsupport.SevenZipCall) (sevenzip.Result, error) {
		testsupport.WriteFile(t, filepath.Join(call.OutputDir, "Game [0100AAAA00000000].nsp"), 3)
		return sevenzip.Result{ExitCode: 2, Output: "ERROR: Wrong password : Game [0100AAAA00000000].nsp"}, nil
	}
	sets := archiveset.Group([]string{"/src/G.rar"})
	workDir := t.TempDir()
	result, err := newExtractor(t, fake).ExtractGame(context.Background(), sets, workDir, []string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("ExtractGame: %v", err)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("expected one failure, got %v", result.Failures)
	}
	if len(result.GameFiles) != 0 {
		t.Fatalf("failed set must not contribute files, got %v", result.GameFiles)
	}
	if n := len(fake.CallsFor("x")); n != 2 {
		t.Fatalf("expected one attempt per password, got %d", n)
	}
}

func TestExtractClearsOutputAfterMissingVolume(t *testing.T) {
	fake := testsupport.NewFakeSevenZip(t, nil)
	fake.Respond = func(call testsupport.SevenZipCall) (sevenzip.Result, error) {
		testsupport.WriteFile(t, filepath.Join(call.OutputDir, "part.nsp"), 3)
		return sevenzip.Result{ExitCode: 2, Output: "ERROR: Missing volume : G.part2.rar"}, nil
	}
	out := t.TempDir()
	set := archiveset.Group([]string{"/src/G.part1.rar"})[0]
	if err := newExtractor(t, fake).Extract(context.Background(), set, out, []string{"a"}); err == nil {
		t.Fatal("expected an error")
	}
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty output, found %d entries", len(entries))
	}
}
