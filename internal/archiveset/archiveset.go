package archiveset

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the container family of a set.
type Kind string

const (
	KindMultiPartRAR Kind = "rar-multipart"
	KindRAR          Kind = "rar"
	KindZIP          Kind = "zip"
)

var (
	multiPartPattern = regexp.MustCompile(`(?i)^(.*)\.part(\d+)\.rar$`)
	archivePattern   = regexp.MustCompile(`(?i)\.(rar|zip)$`)
)

var gameExtensions = []string{".nsp", ".nsz", ".xci", ".xcz"}

// Part is one file of a set.
type Part struct {
	Path  string
	Index int
}

// Set is one logical archive, possibly split over several numbered parts.
type Set struct {
	Key   string
	Kind  Kind
	Parts []Part
}

// Primary returns the file handed to the extraction tool. The tool picks up
// the remaining parts on its own by file name.
func (s Set) Primary() string {
	if len(s.Parts) == 0 {
		return ""
	}
	return s.Parts[0].Path
}

// Files lists every member path in part order.
func (s Set) Files() []string {
	out := make([]string, 0, len(s.Parts))
	for _, p := range s.Parts {
		out = append(out, p.Path)
	}
	return out
}

// Name is the base name of the primary part.
func (s Set) Name() string {
	return filepath.Base(s.Primary())
}

// IsZIP reports whether the set is a self-contained zip container.
func (s Set) IsZIP() bool {
	return s.Kind == KindZIP
}

// IsArchive reports whether name carries a recognized archive extension.
func IsArchive(name string) bool {
	return archivePattern.MatchString(name)
}

// IsGameFile reports whether name carries a recognized game-file extension.
func IsGameFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range gameExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// GameExtensions returns the recognized game-file extensions.
func GameExtensions() []string {
	return append([]string(nil), gameExtensions...)
}

// MultiPart parses the part number of a "<base>.partN.rar" name.
func MultiPart(name string) (base string, index int, ok bool) {
	match := multiPartPattern.FindStringSubmatch(filepath.Base(name))
	if match == nil {
		return "", 0, false
	}
	index, err := strconv.Atoi(match[2])
	if err != nil {
		return "", 0, false
	}
	return match[1], index, true
}

// IsSecondaryPart reports whether name is a multi-part member other than the
// first, which callers skip because the first part stands for the whole set.
func IsSecondaryPart(name string) bool {
	_, index, ok := MultiPart(name)
	return ok && index != 1
}

// Group partitions files into logical archive sets. Files without an archive
// extension are ignored. Sets are returned in the order their first member
// appears in files.
func Group(files []string) []Set {
	buckets := make(map[string]*Set)
	order := make([]string, 0, len(files))

	add := func(key string, kind Kind, part Part) {
		set, ok := buckets[key]
		if !ok {
			set = &Set{Key: key, Kind: kind}
			buckets[key] = set
			order = append(order, key)
		}
		set.Parts = append(set.Parts, part)
	}

	for _, file := range files {
		name := filepath.Base(file)
		dir := filepath.Dir(file)
		if base, index, ok := MultiPart(name); ok {
			add(filepath.Join(dir, base)+"#rar", KindMultiPartRAR, Part{Path: file, Index: index})
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".zip":
			add(file, KindZIP, Part{Path: file})
		case ".rar":
			add(filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name)))+"#rar", KindRAR, Part{Path: file})
		}
	}

	sets := make([]Set, 0, len(order))
	for _, key := range order {
		set := buckets[key]
		sort.SliceStable(set.Parts, func(i, j int) bool {
			return set.Parts[i].Index < set.Parts[j].Index
		})
		sets = append(sets, *set)
	}
	return sets
}

// Siblings gathers every multi-part member in candidates that belongs to the
// same set as primary. A non multi-part primary returns itself.
func Siblings(primary string, candidates []string) []string {
	base, _, ok := MultiPart(primary)
	if !ok {
		return []string{primary}
	}
	dir := filepath.Dir(primary)
	for _, set := range Group(candidates) {
		if set.Kind != KindMultiPartRAR {
			continue
		}
		if set.Key == filepath.Join(dir, base)+"#rar" {
			return set.Files()
		}
	}
	return []string{primary}
}
