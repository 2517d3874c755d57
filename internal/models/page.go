package models

import (
	"fmt"
	"regexp"
)

// FieldCount is the number of fields in a serialized page record
const FieldCount = 6

var pageNumberPattern = regexp.MustCompile(`^[0-9]{6}$`)

// Record represents a parsed page, either from the remote source or from the
// translated archive
type Record struct {
	Caption string // Title shown above the panel
	Hash    string // Opaque identifier token
	Created string // Creation timestamp, kept as text
	Links   string // Newline separated content links, "F|" marks flash content
	Body    string // Page text, may span several lines
	Next    string // Newline separated links to the following pages
}

// Fields returns the record as an ordered tuple
func (r Record) Fields() [FieldCount]string {
	return [FieldCount]string{r.Caption, r.Hash, r.Created, r.Links, r.Body, r.Next}
}

// RecordFromFields builds a record from an ordered tuple
func RecordFromFields(f [FieldCount]string) Record {
	return Record{
		Caption: f[0],
		Hash:    f[1],
		Created: f[2],
		Links:   f[3],
		Body:    f[4],
		Next:    f[5],
	}
}

// FieldNames lists the record fields in serialization order
var FieldNames = [FieldCount]string{"caption", "hash", "created", "links", "body", "next"}

// PageRef pairs a page number with the act that holds it
type PageRef struct {
	Number string
	Act    string
}

func (p PageRef) String() string {
	return fmt.Sprintf("%s (%s)", p.Number, p.Act)
}

// ValidPageNumber reports whether number is a six digit, zero padded page number
func ValidPageNumber(number string) bool {
	return pageNumberPattern.MatchString(number)
}

// FormatPageNumber zero pads n to six digits
func FormatPageNumber(n int) string {
	return fmt.Sprintf("%06d", n)
}
