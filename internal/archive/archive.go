// Package archive maps the translated page archive onto a file tree.
//
// Pages live in act directories as <NNNNNN>.txt files; every act carries an
// image subdirectory for its visual assets. An act name such as "Act6 Act6"
// becomes the nested path Act6/Act6 under the repository root.
//
// Operations are not transactional and the package does no locking of its
// own. Callers that may run concurrently over the same root should hold the
// repository lock (see AcquireLock).
package archive

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/hs-ru/pagesync/internal/logger"
)

// DefaultImageDir is the name of the per-act image subdirectory
const DefaultImageDir = "img"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Archive is a translated page repository rooted at a directory
type Archive struct {
	fs       afero.Fs
	root     string
	imageDir string
	log      *logrus.Entry
}

// Option configures an Archive
type Option func(*Archive)

// WithImageDir overrides the per-act image directory name
func WithImageDir(name string) Option {
	return func(a *Archive) {
		if name != "" {
			a.imageDir = name
		}
	}
}

// New creates an archive over fs rooted at root
func New(fs afero.Fs, root string, opts ...Option) *Archive {
	a := &Archive{
		fs:       fs,
		root:     filepath.Clean(root),
		imageDir: DefaultImageDir,
		log:      logger.WithComponent("archive"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewOS creates an archive on the OS filesystem. A relative root is resolved
// against the working directory.
func NewOS(root string, opts ...Option) (*Archive, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return New(afero.NewOsFs(), abs, opts...), nil
}

// Root returns the repository root
func (a *Archive) Root() string {
	return a.root
}

// ImageDir returns the per-act image directory name
func (a *Archive) ImageDir() string {
	return a.imageDir
}

// ActPath returns the directory of act inside this archive
func (a *Archive) ActPath(act string) string {
	return ActToPath(act, a.root)
}

// ImagePath returns the image directory of act inside this archive
func (a *Archive) ImagePath(act string) string {
	return ActToImageDir(act, a.root, a.imageDir)
}
