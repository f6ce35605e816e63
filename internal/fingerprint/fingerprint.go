// Package fingerprint computes the change-detection digest over a
// bookmark's semantic source fields. Equal digests are treated as equal
// content; this is a change detector, not a security boundary.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sort"

	"github.com/linkstash/linkstash/pkg/models"
)

// Hash returns the hex digest of the canonical serialization of content.
// Fields are written in a fixed order with tags sorted first, so tag
// reorderings collapse to the same digest and any field change produces
// a different one.
func Hash(content models.BookmarkContent) string {
	tags := make([]string, len(content.Tags))
	copy(tags, content.Tags)
	sort.Strings(tags)

	h := sha256.New()
	writeField(h, content.Title)
	writeField(h, content.Description)
	writeField(h, content.Notes)
	writeField(h, content.ContentText)
	for _, tag := range tags {
		writeField(h, tag)
	}
	// Terminator marks the end of the variable-length tag list so tag
	// content cannot shift into siteName (or the reverse). Tags holding
	// literal NULs can still collide with each other; web content never
	// carries them.
	h.Write([]byte{1})
	writeField(h, content.SiteName)

	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, field string) {
	h.Write([]byte(field))
	h.Write([]byte{0})
}
