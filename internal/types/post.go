// Package types holds the content types shared by the scanner, the registry
// and the generation pipeline.
package types

import "time"

// Post is a piece of content that gets its own card.
type Post struct {
	// ID is the URL-safe identifier used in routes and output paths.
	ID          string
	Title       string
	Description string
	Author      string
	Date        time.Time
	Tags        []string
	Draft       bool

	// FilePath is the source file the post was read from.
	FilePath string
	// LastMod and Hash support change detection when rescanning.
	LastMod time.Time
	Hash    string
}

// EventType represents the type of post change event.
type EventType string

const (
	EventTypeAdded   EventType = "added"
	EventTypeUpdated EventType = "updated"
	EventTypeRemoved EventType = "removed"
)

// PostEvent is a change in the post registry, delivered to watchers such as
// the preview server.
type PostEvent struct {
	Type      EventType
	Post      *Post
	Timestamp time.Time
}
