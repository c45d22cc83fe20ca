package blob

import (
	"context"
	"fmt"
)

// DefaultFSRoot is used when the filesystem driver has no configured root.
const DefaultFSRoot = "./gedcom"

// Settings selects and configures a driver. It mirrors the blob section of
// the application config.
type Settings struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open returns the Store described by s. An empty driver means filesystem.
func Open(ctx context.Context, s Settings) (Store, error) {
	switch s.Driver {
	case "", DriverFilesystem:
		root := s.FSRoot
		if root == "" {
			root = DefaultFSRoot
		}
		return NewFilesystem(root)
	case DriverS3:
		return NewS3(ctx, s.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", s.Driver)
	}
}
