package pathconv

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitetree/internal/foundation"
)

// DescriptorExt is the extension of page descriptor files.
const DescriptorExt = ".yml"

var (
	nonWord       = regexp.MustCompile(`\W`)
	camelBoundary = regexp.MustCompile(`([a-z\d])([A-Z])`)
	titleCaser    = cases.Title(language.English)
)

// Segments returns the non-empty segments of a permalink.
func Segments(permalink string) []string {
	parts := strings.Split(filepath.ToSlash(permalink), "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Join builds a normalized permalink from segments.
func Join(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/") + "/"
}

// Normalize returns permalink with one leading and exactly one trailing '/'.
// "about/team", "/about/team" and "/about//team/" all become "/about/team/".
func Normalize(permalink string) string {
	return Join(Segments(permalink))
}

// DiskPathToPermalink converts a page directory under root into its permalink.
// The root itself maps to "/". Ordering prefixes are dropped from every segment.
func DiskPathToPermalink(root, dir string) string {
	segs := Segments(relativeTo(root, dir))
	for i, s := range segs {
		segs[i] = ParseSegment(s).Name
	}
	return Join(segs)
}

// PermalinkToSearchPattern expands a permalink into a glob that finds its
// descriptor file whatever ordering prefixes the directories carry on disk:
// "/about/team/" becomes "<root>/*about/*team/*.yml".
func PermalinkToSearchPattern(root, permalink string) string {
	parts := []string{QuoteGlob(root)}
	for _, s := range Segments(permalink) {
		parts = append(parts, "*"+QuoteGlob(s))
	}
	parts = append(parts, "*"+DescriptorExt)
	return filepath.Join(parts...)
}

// MatchesPermalink reports whether the directory chain below root resolves to
// exactly permalink once ordering prefixes are stripped. It filters the glob
// hits of PermalinkToSearchPattern, where "*team" would also match "myteam".
func MatchesPermalink(root, dir, permalink string) bool {
	return DiskPathToPermalink(root, dir) == Normalize(permalink)
}

// SlugOf returns the last segment of a permalink, or "" for the root.
func SlugOf(permalink string) string {
	segs := Segments(permalink)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// NameOf turns a slug into a human-readable name: "about-us" becomes "About us".
func NameOf(slug string) string {
	name := nonWord.ReplaceAllString(ParseSegment(slug).Name, " ")
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// IsFloating reports whether the page directory dir is a floating page.
func IsFloating(dir string) bool {
	return ParseSegment(filepath.Base(dir)).IsFloating()
}

// ParentPermalink drops the last segment. Root-level pages have no parent.
func ParentPermalink(permalink string) foundation.Option[string] {
	segs := Segments(permalink)
	if len(segs) <= 1 {
		return foundation.None[string]()
	}
	return foundation.Some(Join(segs[:len(segs)-1]))
}

// AncestorPermalinks lists every proper prefix of permalink, nearest first.
func AncestorPermalinks(permalink string) []string {
	segs := Segments(permalink)
	if len(segs) <= 1 {
		return nil
	}
	out := make([]string, 0, len(segs)-1)
	for i := len(segs) - 1; i >= 1; i-- {
		out = append(out, Join(segs[:i]))
	}
	return out
}

// TitleOf derives an asset display name from a file name: "team_photo-2.jpg"
// becomes "Team Photo 2".
func TitleOf(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = camelBoundary.ReplaceAllString(base, "$1 $2")
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return titleCaser.String(strings.Join(strings.Fields(base), " "))
}

// AssetPath returns the permalink-relative web path of a file below root:
// "<root>/1.about/images/logo.png" becomes "/about/images/logo.png".
func AssetPath(root, file string) string {
	return DiskPathToPermalink(root, filepath.Dir(file)) + filepath.Base(file)
}

// IsDescriptor reports whether a file name is a page descriptor.
func IsDescriptor(name string) bool {
	return filepath.Ext(name) == DescriptorExt
}

func relativeTo(root, p string) string {
	root, p = slashClean(root), slashClean(p)
	if p == root {
		return ""
	}
	return strings.TrimPrefix(p, strings.TrimSuffix(root, "/")+"/")
}

func slashClean(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// QuoteGlob escapes glob metacharacters so s matches itself literally.
func QuoteGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
