// Package events defines the payloads detached pipeline work reports
// back on.
package events

import "time"

// ReindexCompleteEvent is sent when a detached embedding reindex
// finishes.
type ReindexCompleteEvent struct {
	BookmarkID string
	Skipped    bool          // semantic source unchanged, no provider call
	Duration   time.Duration // how long the reindex took
}
