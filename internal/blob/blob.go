// Package blob selects the blob store backend that archives exported reports.
package blob

import (
	"context"
	"fmt"

	"inventorycore/internal/blob/core"
	"inventorycore/internal/infra/blob/fs"
	"inventorycore/internal/infra/blob/memory"
	"inventorycore/internal/infra/blob/s3"
)

type (
	Store      = core.Store
	Info       = core.Info
	PutOptions = core.PutOptions
	Driver     = core.Driver
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound = core.ErrNotFound
	ErrExists   = core.ErrExists
)

// S3Config carries the bucket connection parameters.
type S3Config = s3.Config

// Config selects and parameterizes a backend. An empty driver means memory.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open builds the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return memory.New(), nil
	case DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return s3.New(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}
