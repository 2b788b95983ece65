package db

import (
	"context"

	"github.com/ukydev/fleetfix/internal/auth"
	"github.com/ukydev/fleetfix/internal/listcache"
)

// CacheCollection defines the list cache operations backed by MongoDB.
type CacheCollection interface {
	listcache.Store
	EnsureIndexes(ctx context.Context) error
}

// SessionCollection defines the session operations backed by MongoDB.
type SessionCollection interface {
	auth.SessionStore
	EnsureIndexes(ctx context.Context) error
}

var (
	_ CacheCollection   = (*MongoCacheCollection)(nil)
	_ SessionCollection = (*MongoSessionCollection)(nil)
)
