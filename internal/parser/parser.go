package parser

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/hs-ru/pagesync/internal/models"
)

const (
	// Separator delimits the fields of a serialized page
	Separator = "\n###\n"

	// TerminalMark closes the next-page field; a lone mark means the last page
	TerminalMark = "X"

	specialPrefix = "F|"
	specialExt    = ".swf"
)

// Parse splits serialized page text into a record. Works for both the remote
// and the translated pages.
func Parse(text string) (models.Record, error) {
	parts := strings.Split(text, Separator)
	if len(parts) != models.FieldCount {
		return models.Record{}, fmt.Errorf("%w: expected %d fields, got %d",
			models.ErrMalformedRecord, models.FieldCount, len(parts))
	}

	var fields [models.FieldCount]string
	copy(fields[:], parts)
	fields[5] = strings.TrimRight(fields[5], "\n"+TerminalMark)

	return models.RecordFromFields(fields), nil
}

type assembleOptions struct {
	markTerminal bool
	reduceLinks  bool
}

// AssembleOption tunes the normalization passes of Assemble
type AssembleOption func(*assembleOptions)

// WithMarkTerminal controls whether the next-page field gets its terminal mark
func WithMarkTerminal(on bool) AssembleOption {
	return func(o *assembleOptions) { o.markTerminal = on }
}

// WithReduceLinks controls whether content links are collapsed to bare filenames
func WithReduceLinks(on bool) AssembleOption {
	return func(o *assembleOptions) { o.reduceLinks = on }
}

// Raw disables every normalization pass
func Raw() AssembleOption {
	return func(o *assembleOptions) {
		o.markTerminal = false
		o.reduceLinks = false
	}
}

// Assemble serializes a record back to page text. By default the terminal
// mark is appended to the next-page field and content links are reduced to
// filenames, which is the form the translated archive stores.
func Assemble(rec models.Record, opts ...AssembleOption) string {
	o := assembleOptions{markTerminal: true, reduceLinks: true}
	for _, opt := range opts {
		opt(&o)
	}

	if o.markTerminal {
		if rec.Next != "" {
			rec.Next += "\n" + TerminalMark
		} else {
			rec.Next = TerminalMark
		}
	}

	if o.reduceLinks {
		rec.Links = ReduceLinks(rec.Links)
	}

	fields := rec.Fields()
	return strings.Join(fields[:], Separator)
}

// ReduceLinks rewrites every newline separated link to its filename
func ReduceLinks(links string) string {
	entries := strings.Split(links, "\n")
	for i, entry := range entries {
		entries[i] = LinkFilename(entry)
	}
	return strings.Join(entries, "\n")
}

// ExpandSpecialLink rewrites a flash link "F|dir/name" to "dir/name/name.swf".
// Ordinary links pass through unchanged.
func ExpandSpecialLink(link string) string {
	rest, ok := strings.CutPrefix(link, specialPrefix)
	if !ok {
		return link
	}
	return rest + "/" + path.Base(rest) + specialExt
}

// IsSpecialLink reports whether link points at flash content
func IsSpecialLink(link string) bool {
	return strings.HasPrefix(link, specialPrefix)
}

// LinkFilename expands a special link and keeps only its final path segment.
// The query and fragment are dropped and escapes are decoded; the result is
// the name an image is stored under.
func LinkFilename(link string) string {
	expanded := ExpandSpecialLink(link)
	if u, err := url.Parse(expanded); err == nil {
		expanded = u.Path
	}
	return expanded[strings.LastIndex(expanded, "/")+1:]
}

// SplitLinks returns the non-empty entries of a newline separated link field
func SplitLinks(links string) []string {
	var result []string
	for _, entry := range strings.Split(links, "\n") {
		if entry != "" {
			result = append(result, entry)
		}
	}
	return result
}

// Merge combines a translated page with a fresh copy of the original. The
// translated caption and body are kept, everything else comes from remote.
func Merge(local, remote models.Record) models.Record {
	merged := remote
	merged.Caption = local.Caption
	merged.Body = local.Body
	return merged
}

// Diff returns the names of the fields that differ between a and b
func Diff(a, b models.Record) []string {
	fa, fb := a.Fields(), b.Fields()
	var changed []string
	for i := range fa {
		if fa[i] != fb[i] {
			changed = append(changed, models.FieldNames[i])
		}
	}
	return changed
}
