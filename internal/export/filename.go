package export

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/stocklite/stocklite/internal/model"
)

const (
	filePrefix   = "stocklite-history"
	fileDate     = "20060102"
	idFragment   = 8
	fallbackSlug = "item"
)

// Filename suggests a save name for an export made at now. A non-nil item
// adds its slug.
//
//	stocklite-history-20261015.csv
//	stocklite-history-paper-towels-20261015.csv
func Filename(now time.Time, item *model.Item) string {
	date := now.Format(fileDate)
	if item == nil {
		return filePrefix + "-" + date + ".csv"
	}
	return filePrefix + "-" + Slug(item.Name, item.ID) + "-" + date + ".csv"
}

// Slug makes a filesystem-safe name: accents are folded to ASCII, runs of
// anything else that is not a letter or digit become one hyphen, and the
// result is lowercased. When nothing survives (e.g. a name written only in
// Japanese) the first characters of id are used instead.
func Slug(name, id string) string {
	if s := asciiSlug(fold(name)); s != "" {
		return s
	}
	frag := asciiSlug(id)
	if len(frag) > idFragment {
		frag = strings.TrimRight(frag[:idFragment], "-")
	}
	if frag == "" {
		return fallbackSlug
	}
	return frag
}

// fold decomposes s and strips combining marks, so "Café" becomes "Cafe".
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func asciiSlug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pending = false
			continue
		}
		pending = true
	}
	return b.String()
}
