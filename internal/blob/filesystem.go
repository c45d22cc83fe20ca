package blob

import (
	"gedtree/internal/infra/blob/fs"
)

// NewFilesystem constructs a filesystem-backed Store rooted at root, creating
// the directory when needed.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}
