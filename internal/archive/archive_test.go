package archive

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/hs-ru/pagesync/internal/models"
	"github.com/hs-ru/pagesync/internal/parser"
)

const testRoot = "/repo"

// pageText builds a serialized page referencing the given image links
func pageText(caption string, links ...string) string {
	return parser.Assemble(models.Record{
		Caption: caption,
		Hash:    "hash",
		Created: "1239939780",
		Links:   strings.Join(links, "\n"),
		Body:    "body",
		Next:    "",
	})
}

// newTestArchive returns an in-memory archive with the given files
func newTestArchive(t *testing.T, files map[string]string) *Archive {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		p := filepath.Join(testRoot, filepath.FromSlash(name))
		require.NoError(t, fs.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, afero.WriteFile(fs, p, []byte(content), 0o644))
	}
	require.NoError(t, fs.MkdirAll(testRoot, 0o755))
	return New(fs, testRoot)
}
