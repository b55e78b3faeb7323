package testsupport

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"switchlib/internal/services/sevenzip"
)

// SevenZipCall is one recorded invocation of the fake extraction tool.
type SevenZipCall struct {
	Mode      string
	Password  string
	Archive   string
	OutputDir string
}

// FakeArchive describes the contents the fake tool reports for an archive.
type FakeArchive struct {
	// Password is required for listing and extraction. Empty accepts any.
	Password string
	// Files maps relative paths to sizes in bytes.
	Files map[string]int64
	// Output replaces the successful listing text when set.
	Output string
	// ExitCode and FailOutput force a failure regardless of password.
	ExitCode   int
	FailOutput string
}

// FakeSevenZip implements sevenzip.Runner without spawning processes.
// Archives are looked up by full path first, then by base name so archives
// produced by an extraction can be described up front.
type FakeSevenZip struct {
	t        testing.TB
	mu       sync.Mutex
	archives map[string]FakeArchive
	calls    []SevenZipCall
	// Respond overrides the archive table when set.
	Respond func(call SevenZipCall) (sevenzip.Result, error)
}

// NewFakeSevenZip builds a fake tool serving the given archives.
func NewFakeSevenZip(t testing.TB, archives map[string]FakeArchive) *FakeSevenZip {
	if archives == nil {
		archives = map[string]FakeArchive{}
	}
	return &FakeSevenZip{t: t, archives: archives}
}

// Calls returns a copy of every invocation so far.
func (f *FakeSevenZip) Calls() []SevenZipCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SevenZipCall(nil), f.calls...)
}

// CallsFor returns the invocations in the given mode ("x" or "l").
func (f *FakeSevenZip) CallsFor(mode string) []SevenZipCall {
	var out []SevenZipCall
	for _, call := range f.Calls() {
		if call.Mode == mode {
			out = append(out, call)
		}
	}
	return out
}

// Run satisfies sevenzip.Runner.
func (f *FakeSevenZip) Run(ctx context.Context, _ string, args []string) (sevenzip.Result, error) {
	if err := ctx.Err(); err != nil {
		return sevenzip.Result{ExitCode: -1}, err
	}
	call := ParseSevenZipArgs(args)
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.Respond != nil {
		return f.Respond(call)
	}

	archive, ok := f.archives[call.Archive]
	if !ok {
		archive, ok = f.archives[filepath.Base(call.Archive)]
	}
	if !ok {
		return sevenzip.Result{ExitCode: 2, Output: "ERROR: " + call.Archive + "\nCannot open the file as archive"}, nil
	}
	if archive.ExitCode != 0 {
		return sevenzip.Result{ExitCode: archive.ExitCode, Output: archive.FailOutput}, nil
	}
	if archive.Password != "" && archive.Password != call.Password {
		if call.Mode == "l" {
			return sevenzip.Result{ExitCode: 2, Output: "Cannot open encrypted archive. Wrong password?"}, nil
		}
		return sevenzip.Result{ExitCode: 2, Output: "ERROR: Wrong password : " + firstName(archive)}, nil
	}

	switch call.Mode {
	case "l":
		if archive.Output != "" {
			return sevenzip.Result{Output: archive.Output}, nil
		}
		return sevenzip.Result{Output: listing(archive)}, nil
	case "x":
		for name, size := range archive.Files {
			WriteFile(f.t, filepath.Join(call.OutputDir, filepath.FromSlash(name)), size)
		}
		return sevenzip.Result{}, nil
	default:
		return sevenzip.Result{ExitCode: 7, Output: "ERROR: unsupported command"}, nil
	}
}

// ParseSevenZipArgs decodes the argument forms used by sevenzip.Client.
func ParseSevenZipArgs(args []string) SevenZipCall {
	var call SevenZipCall
	if len(args) > 0 {
		call.Mode = args[0]
	}
	for _, arg := range args[1:] {
		switch {
		case arg == "-y":
		case strings.HasPrefix(arg, "-p"):
			call.Password = strings.TrimPrefix(arg, "-p")
		case strings.HasPrefix(arg, "-o"):
			call.OutputDir = strings.TrimPrefix(arg, "-o")
		default:
			call.Archive = arg
		}
	}
	return call
}

func sortedNames(archive FakeArchive) []string {
	names := make([]string, 0, len(archive.Files))
	for name := range archive.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func firstName(archive FakeArchive) string {
	names := sortedNames(archive)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func listing(archive FakeArchive) string {
	var b strings.Builder
	b.WriteString("7-Zip 23.01\n\n   Date      Time    Attr         Size   Compressed  Name\n")
	for _, name := range sortedNames(archive) {
		b.WriteString("2024-01-01 00:00:00 ....A         1024         1000  ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	return b.String()
}
