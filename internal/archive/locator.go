package archive

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/hs-ru/pagesync/internal/models"
	"github.com/hs-ru/pagesync/internal/parser"
)

const pageExt = ".txt"

var pageFilePattern = regexp.MustCompile(`^[0-9]{6}\.txt$`)

// errStopWalk ends a walk early once a match is found
var errStopWalk = errors.New("stop walk")

// ActToPath converts a space separated act name into a directory under root
func ActToPath(act, root string) string {
	parts := []string{root}
	for _, seg := range strings.Split(act, " ") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return filepath.Join(parts...)
}

// ActToImageDir returns the image directory of act under root
func ActToImageDir(act, root, imageDir string) string {
	return filepath.Join(ActToPath(act, root), imageDir)
}

// PathToAct converts a directory under root back into an act name. The root
// itself maps to the empty act.
func PathToAct(path, root string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("path %s is not under %s: %w", path, root, err)
	}
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is not under %s", path, root)
	}
	return strings.Join(strings.Split(rel, string(filepath.Separator)), " "), nil
}

// walk visits the tree under the root in lexical order. A missing root is an
// empty archive.
func (a *Archive) walk(fn filepath.WalkFunc) error {
	if _, err := a.fs.Stat(a.root); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return afero.Walk(a.fs, a.root, fn)
}

// LocatePage searches the tree for <number>.txt. Directories are visited in
// lexical order and the first match wins. found is false when no page exists.
func (a *Archive) LocatePage(number string) (path string, found bool, err error) {
	if !models.ValidPageNumber(number) {
		return "", false, fmt.Errorf("invalid page number %q", number)
	}
	want := number + pageExt

	err = a.walk(func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.Name() == want {
			path = p
			return errStopWalk
		}
		return nil
	})
	if errors.Is(err, errStopWalk) {
		return path, true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to search for page %s: %w", number, err)
	}

	a.log.WithField("page", number).Debug("Page not found")
	return "", false, nil
}

// ActExists reports whether both the act directory and its image directory exist
func (a *Archive) ActExists(act string) (bool, error) {
	ok, err := afero.DirExists(a.fs, a.ActPath(act))
	if err != nil || !ok {
		return false, err
	}
	return afero.DirExists(a.fs, a.ImagePath(act))
}

// ListPages returns every page in the archive sorted by page number
func (a *Archive) ListPages() ([]models.PageRef, error) {
	var pages []models.PageRef

	err := a.walk(func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !pageFilePattern.MatchString(info.Name()) {
			return nil
		}
		act, err := PathToAct(filepath.Dir(p), a.root)
		if err != nil {
			return err
		}
		pages = append(pages, models.PageRef{
			Number: strings.TrimSuffix(info.Name(), pageExt),
			Act:    act,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	// zero padded numbers sort numerically
	slices.SortStableFunc(pages, func(x, y models.PageRef) int {
		if c := cmp.Compare(x.Number, y.Number); c != 0 {
			return c
		}
		return cmp.Compare(x.Act, y.Act)
	})

	a.log.WithField("pages_count", len(pages)).Debug("Listed pages")
	return pages, nil
}

// LatestPage returns the page with the highest number. found is false for an
// empty archive.
func (a *Archive) LatestPage() (ref models.PageRef, found bool, err error) {
	pages, err := a.ListPages()
	if err != nil {
		return models.PageRef{}, false, err
	}
	if len(pages) == 0 {
		return models.PageRef{}, false, nil
	}
	return pages[len(pages)-1], true, nil
}

// PageAct returns the act holding page number
func (a *Archive) PageAct(number string) (string, error) {
	path, err := a.pagePath(number)
	if err != nil {
		return "", err
	}
	return PathToAct(filepath.Dir(path), a.root)
}

// ReadPageText returns the raw text of page number
func (a *Archive) ReadPageText(number string) (string, error) {
	path, err := a.pagePath(number)
	if err != nil {
		return "", err
	}
	return a.readPageText(number, path)
}

// ReadPage reads and parses page number
func (a *Archive) ReadPage(number string) (models.Record, error) {
	path, err := a.pagePath(number)
	if err != nil {
		return models.Record{}, err
	}
	return a.readPage(number, path)
}

// pagePath locates page number, returning ErrNotFound when it is absent
func (a *Archive) pagePath(number string) (string, error) {
	path, found, err := a.LocatePage(number)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("page %s: %w", number, models.ErrNotFound)
	}
	return path, nil
}

func (a *Archive) readPageText(number, path string) (string, error) {
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to read page %s: %w", number, err)
	}
	return string(data), nil
}

func (a *Archive) readPage(number, path string) (models.Record, error) {
	text, err := a.readPageText(number, path)
	if err != nil {
		return models.Record{}, err
	}

	rec, err := parser.Parse(text)
	if err != nil {
		return models.Record{}, fmt.Errorf("page %s: %w", number, err)
	}
	return rec, nil
}

// LocateImages returns the paths of every image referenced by page number.
// Results follow the order of the page's links. A filename present in the
// page's own image directory resolves there; otherwise every match in the
// tree is returned.
func (a *Archive) LocateImages(number string) ([]string, error) {
	pagePath, err := a.pagePath(number)
	if err != nil {
		return nil, err
	}
	rec, err := a.readPage(number, pagePath)
	if err != nil {
		return nil, err
	}
	ownDir := filepath.Join(filepath.Dir(pagePath), a.imageDir)

	var names []string
	wanted := make(map[string][]string)
	for _, link := range parser.SplitLinks(rec.Links) {
		name := parser.LinkFilename(link)
		if name == "" {
			continue
		}
		if _, ok := wanted[name]; ok {
			continue
		}
		wanted[name] = nil
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, nil
	}

	err = a.walk(func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if matches, ok := wanted[info.Name()]; ok {
			wanted[info.Name()] = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search images of page %s: %w", number, err)
	}

	var paths []string
	for _, name := range names {
		matches := wanted[name]
		if len(matches) == 0 {
			a.log.WithFields(map[string]interface{}{
				"page":  number,
				"image": name,
			}).Warn("Image referenced by page is missing")
			continue
		}
		own := filepath.Join(ownDir, name)
		if slices.Contains(matches, own) {
			matches = []string{own}
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

// ImageFile is an open image yielded by OpenImages. Reader is only valid
// inside the loop body that received it.
type ImageFile struct {
	Path   string
	Reader io.Reader
}

// OpenImages lazily opens the images of page number one at a time. Each file
// is closed when the loop body returns or the loop is abandoned.
func (a *Archive) OpenImages(number string) iter.Seq2[ImageFile, error] {
	return func(yield func(ImageFile, error) bool) {
		paths, err := a.LocateImages(number)
		if err != nil {
			yield(ImageFile{}, err)
			return
		}
		for _, p := range paths {
			if !a.yieldImage(p, yield) {
				return
			}
		}
	}
}

func (a *Archive) yieldImage(p string, yield func(ImageFile, error) bool) bool {
	f, err := a.fs.Open(p)
	if err != nil {
		return yield(ImageFile{Path: p}, fmt.Errorf("failed to open image: %w", err))
	}
	defer f.Close()

	return yield(ImageFile{Path: p, Reader: f}, nil)
}

// ImageExists reports whether act's image directory holds a file called name
func (a *Archive) ImageExists(act, name string) (bool, error) {
	return afero.Exists(a.fs, filepath.Join(a.ImagePath(act), name))
}
