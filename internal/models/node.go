// Package models defines the core value types: repository nodes, queries,
// tags, and search results.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/lookout/internal/geo"
)

// NodeType identifies the kind of repository item a node is.
type NodeType string

const (
	NodeTypeContent NodeType = "content"
	NodeTypeMedia   NodeType = "media"
	NodeTypeMember  NodeType = "member"
)

// Known reports whether the type is one of the closed set of node types.
// Unknown types are carried through rather than rejected; only presentation
// concerns (eg. icons) treat them specially.
func (t NodeType) Known() bool {
	switch t {
	case NodeTypeContent, NodeTypeMedia, NodeTypeMember:
		return true
	}
	return false
}

// NodeTypes returns the closed set of known node types.
func NodeTypes() []NodeType {
	return []NodeType{NodeTypeContent, NodeTypeMedia, NodeTypeMember}
}

// Node is a content repository item, the unit the index is built from.
type Node struct {
	ID    string    `json:"id" db:"id"`
	Key   uuid.UUID `json:"key" db:"key"`
	Type  NodeType  `json:"type" db:"type"`
	Alias string    `json:"alias,omitempty" db:"alias"`
	Name  string    `json:"name" db:"name"`
	Text  string    `json:"text,omitempty" db:"text"`
	// MediaPath points at a media file whose extracted text supplements
	// the text field at index time.
	MediaPath string        `json:"media_path,omitempty" db:"media_path"`
	Date      *time.Time    `json:"date,omitempty" db:"date"`
	Location  *geo.Location `json:"location,omitempty"`
	Tags      []Tag         `json:"tags,omitempty"`
	// Detached marks a node that is indexed but no longer part of the
	// repository tree.
	Detached  bool      `json:"detached,omitempty" db:"detached"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
