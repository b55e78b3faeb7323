package i18n

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"switchlib/internal/extraction"
	"switchlib/internal/services"
	"switchlib/internal/services/sevenzip"
)

// Message keys.
const (
	KeyWrongPassword  = "wrong password: %s"
	KeyCorrupt        = "corrupt archive: %s"
	KeyMissingVolume  = "missing volume: %s"
	KeyNoGameFiles    = "no game files"
	KeyCancelled      = "cancelled"
	KeyToolFailure    = "tool failure: %s: %s"
	KeyToolLaunch     = "tool launch: %s"
	KeyPartialFailure = "partial failure: %s"
	KeyStatusSuccess  = "status success"
	KeyStatusWarning  = "status warning"
	KeyStatusFailed   = "status failed"
)

var supported = []language.Tag{language.English, language.SimplifiedChinese}

var matcher = language.NewMatcher(supported)

var translations = map[language.Tag]map[string]string{
	language.English: {
		KeyWrongPassword:  "%s: wrong password",
		KeyCorrupt:        "%s: corrupt file or wrong password",
		KeyMissingVolume:  "%s: archive volumes incomplete",
		KeyNoGameFiles:    "no game files found (NSP/NSZ/XCI/XCZ)",
		KeyCancelled:      "cancelled",
		KeyToolFailure:    "%s: extraction tool failed (%s)",
		KeyToolLaunch:     "cannot launch the extraction tool: %s",
		KeyPartialFailure: "some archives failed: %s",
		KeyStatusSuccess:  "done",
		KeyStatusWarning:  "done with warnings",
		KeyStatusFailed:   "failed",
	},
	language.SimplifiedChinese: {
		KeyWrongPassword:  "%s: 密码错误",
		KeyCorrupt:        "%s: 文件损坏或密码错误",
		KeyMissingVolume:  "%s: 分卷文件不完整",
		KeyNoGameFiles:    "未找到游戏文件 (NSP/NSZ/XCI/XCZ)",
		KeyCancelled:      "已取消",
		KeyToolFailure:    "%s: 解压工具出错 (%s)",
		KeyToolLaunch:     "无法启动解压工具: %s",
		KeyPartialFailure: "部分解压失败: %s",
		KeyStatusSuccess:  "完成",
		KeyStatusWarning:  "完成 (有警告)",
		KeyStatusFailed:   "失败",
	},
}

var builder = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range translations {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Localizer formats messages for one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New picks the closest supported language for lang ("en", "zh", "zh-CN",
// ...). Unknown values fall back to English.
func New(lang string) *Localizer {
	tag := language.English
	if parsed, err := language.Parse(strings.TrimSpace(lang)); err == nil {
		_, index, confidence := matcher.Match(parsed)
		if confidence != language.No {
			tag = supported[index]
		}
	}
	return &Localizer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(builder))}
}

// Language returns the selected language tag.
func (l *Localizer) Language() language.Tag {
	return l.tag
}

// Sprintf formats a catalog key.
func (l *Localizer) Sprintf(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// Error renders err for display. Archive failures name the archive; the
// sets of an extraction.Failures are rendered one by one and separated by
// "; ".
func (l *Localizer) Error(err error) string {
	if err == nil {
		return ""
	}
	if services.IsCancelled(err) {
		return l.Sprintf(KeyCancelled)
	}
	if errors.Is(err, extraction.ErrNoGameFiles) {
		return l.Sprintf(KeyNoGameFiles)
	}
	var failures extraction.Failures
	if errors.As(err, &failures) {
		parts := make([]string, 0, len(failures))
		for _, inner := range failures {
			parts = append(parts, l.Error(inner))
		}
		return strings.Join(parts, "; ")
	}

	archive := ""
	var archiveErr *extraction.ArchiveError
	if errors.As(err, &archiveErr) {
		archive = archiveErr.Archive
	}
	var toolErr *sevenzip.Error
	if !errors.As(err, &toolErr) {
		return err.Error()
	}
	switch toolErr.Category {
	case sevenzip.CategoryWrongPassword, sevenzip.CategoryEncrypted:
		return l.Sprintf(KeyWrongPassword, archive)
	case sevenzip.CategoryCRC, sevenzip.CategoryData, sevenzip.CategoryHeaders, sevenzip.CategoryCannotOpen:
		return l.Sprintf(KeyCorrupt, archive)
	case sevenzip.CategoryMissingVolume:
		return l.Sprintf(KeyMissingVolume, archive)
	case sevenzip.CategoryLaunch:
		return l.Sprintf(KeyToolLaunch, toolErr.Error())
	default:
		return l.Sprintf(KeyToolFailure, archive, toolErr.Error())
	}
}

// Partial renders the warning attached to a game that succeeded with some
// archive failures.
func (l *Localizer) Partial(failures []error) string {
	return l.Sprintf(KeyPartialFailure, l.Error(extraction.Failures(failures)))
}
