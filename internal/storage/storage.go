// Package storage defines the persistence interface for repository nodes.
package storage

import (
	"context"

	"github.com/hyperjump/lookout/internal/models"
)

// Storage defines node persistence operations. The search engine itself
// never touches storage; it is the source of truth the index is built from.
type Storage interface {
	UpsertNode(ctx context.Context, node *models.Node) error
	GetNode(ctx context.Context, id string) (*models.Node, error)
	DeleteNode(ctx context.Context, id string) error
	ListNodes(ctx context.Context, offset, limit int) ([]*models.Node, error)
	CountNodes(ctx context.Context) (int64, error)

	Close() error
}
