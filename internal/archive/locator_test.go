package archive

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hs-ru/pagesync/internal/models"
	"github.com/hs-ru/pagesync/internal/parser"
)

func TestActToPath(t *testing.T) {
	tests := []struct {
		act      string
		expected string
	}{
		{act: "Act6 Act6", expected: filepath.Join("/root", "Act6", "Act6")},
		{act: "Act1", expected: filepath.Join("/root", "Act1")},
		{act: "Act6  Intermission", expected: filepath.Join("/root", "Act6", "Intermission")},
	}

	for _, tt := range tests {
		t.Run(tt.act, func(t *testing.T) {
			assert.Equal(t, tt.expected, ActToPath(tt.act, "/root"))
		})
	}

	assert.Equal(t, filepath.Join("/root", "Act6", "Act6", "img"), ActToImageDir("Act6 Act6", "/root", "img"))
}

func TestPathToAct(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		root        string
		expected    string
		expectError bool
	}{
		{name: "Nested act", path: "/root/Act6/Act6", root: "/root", expected: "Act6 Act6"},
		{name: "Trailing separator on root", path: "/root/Act1", root: "/root/", expected: "Act1"},
		{name: "Root itself", path: "/root", root: "/root", expected: ""},
		{name: "Act sharing leading characters with root", path: "/root/rootling", root: "/root", expected: "rootling"},
		{name: "Sibling with root as prefix", path: "/rootling/Act1", root: "/root", expectError: true},
		{name: "Parent of root", path: "/", root: "/root", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act, err := PathToAct(tt.path, tt.root)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, act)
		})
	}

	assert.Equal(t, "Act6 Act6", must(PathToAct(ActToPath("Act6 Act6", "/root"), "/root")))
}

func must(s string, err error) string {
	if err != nil {
		panic(err)
	}
	return s
}

func TestLocatePage(t *testing.T) {
	a := newTestArchive(t, map[string]string{
		"Act1/000001.txt":      pageText("one"),
		"Act2/000010.txt":      pageText("ten"),
		"Act2/img/000010.gif":  "gif",
		"Act3/Act3/000010.txt": pageText("duplicate"),
	})

	path, found, err := a.LocatePage("000001")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, filepath.Join(testRoot, "Act1", "000001.txt"), path)

	// lexical order picks Act2 before Act3
	path, found, err = a.LocatePage("000010")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, filepath.Join(testRoot, "Act2", "000010.txt"), path)

	_, found, err = a.LocatePage("000002")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = a.LocatePage("12")
	assert.Error(t, err)
}

func TestListPagesAndLatest(t *testing.T) {
	a := newTestArchive(t, map[string]string{
		"Act2/000010.txt": pageText("ten"),
		"Act1/000001.txt": pageText("one"),
		"Act1/notes.txt":  "not a page",
		"Act1/00001.txt":  "five digits",
	})

	pages, err := a.ListPages()
	require.NoError(t, err)
	assert.Equal(t, []models.PageRef{
		{Number: "000001", Act: "Act1"},
		{Number: "000010", Act: "Act2"},
	}, pages)

	latest, found, err := a.LatestPage()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.PageRef{Number: "000010", Act: "Act2"}, latest)
}

func TestListPagesSortsNumerically(t *testing.T) {
	a := newTestArchive(t, map[string]string{
		"B/000100.txt":     pageText("hundred"),
		"A/000020.txt":     pageText("twenty"),
		"C/D/000003.txt":   pageText("three"),
		"Z/img/000001.txt": pageText("inside img"),
	})

	pages, err := a.ListPages()
	require.NoError(t, err)
	assert.Equal(t, []models.PageRef{
		{Number: "000001", Act: "Z img"},
		{Number: "000003", Act: "C D"},
		{Number: "000020", Act: "A"},
		{Number: "000100", Act: "B"},
	}, pages)
}

func TestLatestPageEmpty(t *testing.T) {
	a := newTestArchive(t, nil)

	_, found, err := a.LatestPage()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReadPage(t *testing.T) {
	a := newTestArchive(t, map[string]string{
		"Act1/000001.txt": pageText("one", "00001.gif"),
		"Act1/000002.txt": "broken",
	})

	rec, err := a.ReadPage("000001")
	require.NoError(t, err)
	assert.Equal(t, "one", rec.Caption)
	assert.Equal(t, "00001.gif", rec.Links)

	_, err = a.ReadPage("000002")
	assert.ErrorIs(t, err, models.ErrMalformedRecord)

	_, err = a.ReadPage("000003")
	assert.ErrorIs(t, err, models.ErrNotFound)

	act, err := a.PageAct("000001")
	require.NoError(t, err)
	assert.Equal(t, "Act1", act)
}

func TestActExists(t *testing.T) {
	a := newTestArchive(t, map[string]string{
		"Act1/img/00001.gif": "gif",
		"Act2/000010.txt":    pageText("no image dir"),
	})

	exists, err := a.ActExists("Act1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = a.ActExists("Act2")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = a.ActExists("Act9")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocateImages(t *testing.T) {
	a := newTestArchive(t, map[string]string{
		"Act1/000001.txt":     pageText("one", "http://cdn/storyfiles/hs2/00002.gif", "F|storyfiles/hs2/00001", "http://cdn/missing.gif"),
		"Act1/img/00001.swf":  "swf",
		"Act1/img/00002.gif":  "gif",
		"Act2/img/00002.gif":  "copy",
		"Act2/img/unused.gif": "unused",
	})

	// the copy in the page's own act wins over the one in Act2
	images, err := a.LocateImages("000001")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(testRoot, "Act1", "img", "00002.gif"),
		filepath.Join(testRoot, "Act1", "img", "00001.swf"),
	}, images)

	_, err = a.LocateImages("000009")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLocateImagesElsewhere(t *testing.T) {
	a := newTestArchive(t, map[string]string{
		"Act1/000001.txt":    pageText("one", "00003.gif"),
		"Act2/img/00003.gif": "second",
		"Act3/img/00003.gif": "third",
	})

	images, err := a.LocateImages("000001")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(testRoot, "Act2", "img", "00003.gif"),
		filepath.Join(testRoot, "Act3", "img", "00003.gif"),
	}, images)
}

func TestLocateImagesEscapedLink(t *testing.T) {
	link := "http://cdn.example/story/a%20b.gif?v=2"
	text := parser.Assemble(models.Record{Caption: "one", Links: link}, parser.Raw())

	a := newTestArchive(t, nil)
	require.NoError(t, a.CreatePage("000001", "Act1", text))
	require.NoError(t, a.CreateImage([]byte("gif"), link, "Act1"))

	images, err := a.LocateImages("000001")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(testRoot, "Act1", "img", "a b.gif")}, images)

	ok, err := a.ImageExists("Act1", parser.LinkFilename(link))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMissingRoot(t *testing.T) {
	a := New(afero.NewMemMapFs(), "/nope")

	_, found, err := a.LocatePage("000001")
	require.NoError(t, err)
	assert.False(t, found)

	pages, err := a.ListPages()
	require.NoError(t, err)
	assert.Empty(t, pages)

	_, found, err = a.LatestPage()
	require.NoError(t, err)
	assert.False(t, found)

	_, err = a.ReadPage("000001")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOpenImages(t *testing.T) {
	a := newTestArchive(t, map[string]string{
		"Act1/000001.txt":    pageText("one", "00001.gif", "00002.gif"),
		"Act1/img/00001.gif": "first",
		"Act1/img/00002.gif": "second",
	})

	var contents []string
	for img, err := range a.OpenImages("000001") {
		require.NoError(t, err)
		data, err := io.ReadAll(img.Reader)
		require.NoError(t, err)
		contents = append(contents, filepath.Base(img.Path)+"="+string(data))
	}
	assert.Equal(t, []string{"00001.gif=first", "00002.gif=second"}, contents)

	// abandoning the sequence early stops opening files
	count := 0
	for range a.OpenImages("000001") {
		count++
		break
	}
	assert.Equal(t, 1, count)

	for _, err := range a.OpenImages("000404") {
		assert.True(t, errors.Is(err, models.ErrNotFound))
	}
}
