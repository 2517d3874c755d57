package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/hs-ru/pagesync/internal/models"
	"github.com/hs-ru/pagesync/internal/parser"
)

// CreateAct creates the act directory and its image directory. Existing
// directories are left alone.
func (a *Archive) CreateAct(act string) error {
	if act == "" {
		return errors.New("act name is required")
	}
	if err := a.fs.MkdirAll(a.ImagePath(act), dirPerm); err != nil {
		return fmt.Errorf("failed to create act %q: %w", act, err)
	}
	a.log.WithField("act", act).Debug("Act ready")
	return nil
}

// WritePage overwrites an existing page. It never creates one.
func (a *Archive) WritePage(number, text string) error {
	path, found, err := a.LocatePage(number)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("page %s: %w", number, models.ErrNotFound)
	}

	if err := afero.WriteFile(a.fs, path, []byte(text), filePerm); err != nil {
		return fmt.Errorf("failed to write page %s: %w", number, err)
	}

	a.log.WithFields(map[string]interface{}{
		"page": number,
		"path": path,
	}).Info("Page written")
	return nil
}

// CreatePage writes a new page into act, creating the act when needed. It
// fails with ErrConflict when the target file already exists.
func (a *Archive) CreatePage(number, act, text string) error {
	if !models.ValidPageNumber(number) {
		return fmt.Errorf("invalid page number %q", number)
	}
	if err := a.CreateAct(act); err != nil {
		return err
	}

	target := filepath.Join(a.ActPath(act), number+pageExt)
	f, err := a.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("page %s at %s: %w", number, target, models.ErrConflict)
		}
		return fmt.Errorf("failed to create page %s: %w", number, err)
	}

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return fmt.Errorf("failed to write page %s: %w", number, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write page %s: %w", number, err)
	}

	a.log.WithFields(map[string]interface{}{
		"page": number,
		"act":  act,
	}).Info("Page created")
	return nil
}

// ImageName derives an image filename from a content link. It matches the
// name LocateImages looks for.
func ImageName(rawURL string) (string, error) {
	name := parser.LinkFilename(rawURL)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("no filename in %q", rawURL)
	}
	return name, nil
}

// WriteImage stores data in the image directory of an existing act
func (a *Archive) WriteImage(data []byte, rawURL, act string) error {
	exists, err := a.ActExists(act)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("act %q: %w", act, models.ErrNotFound)
	}

	name, err := ImageName(rawURL)
	if err != nil {
		return err
	}

	target := filepath.Join(a.ImagePath(act), name)
	if err := afero.WriteFile(a.fs, target, data, filePerm); err != nil {
		return fmt.Errorf("failed to write image %s: %w", name, err)
	}

	a.log.WithFields(map[string]interface{}{
		"image": name,
		"act":   act,
		"size":  humanize.Bytes(uint64(len(data))),
	}).Info("Image written")
	return nil
}

// CreateImage is WriteImage that creates the act first when needed
func (a *Archive) CreateImage(data []byte, rawURL, act string) error {
	if err := a.CreateAct(act); err != nil {
		return err
	}
	return a.WriteImage(data, rawURL, act)
}

// MovePage relocates a page and its images into act. Images are moved first,
// so an interrupted move can leave the page split across two acts; running
// the move again completes it.
func (a *Archive) MovePage(number, act string) error {
	pagePath, found, err := a.LocatePage(number)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("page %s: %w", number, models.ErrNotFound)
	}

	images, err := a.LocateImages(number)
	if err != nil {
		return err
	}

	if err := a.CreateAct(act); err != nil {
		return err
	}

	imageDir := a.ImagePath(act)
	for _, src := range images {
		if err := a.move(src, filepath.Join(imageDir, filepath.Base(src))); err != nil {
			return err
		}
	}

	if err := a.move(pagePath, filepath.Join(a.ActPath(act), filepath.Base(pagePath))); err != nil {
		return err
	}

	a.log.WithFields(map[string]interface{}{
		"page":         number,
		"act":          act,
		"images_count": len(images),
	}).Info("Page moved")
	return nil
}

// move renames src to dst, refusing to replace an existing file
func (a *Archive) move(src, dst string) error {
	if src == dst {
		return nil
	}
	exists, err := afero.Exists(a.fs, dst)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("move %s to %s: %w", src, dst, models.ErrConflict)
	}
	if err := a.fs.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move %s: %w", src, err)
	}
	return nil
}

// DropAct removes an empty act: first its image directory, then the act
// directory. Nothing is removed unless both are empty.
func (a *Archive) DropAct(act string) error {
	actPath := a.ActPath(act)
	imagePath := a.ImagePath(act)

	if actPath == a.root {
		return errors.New("refusing to drop the repository root")
	}

	exists, err := a.ActExists(act)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("act %q: %w", act, models.ErrNotFound)
	}

	empty, err := afero.IsEmpty(a.fs, imagePath)
	if err != nil {
		return err
	}
	if !empty {
		return fmt.Errorf("image directory of act %q is not empty: %w", act, models.ErrConflict)
	}

	entries, err := afero.ReadDir(a.fs, actPath)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() != a.imageDir {
			return fmt.Errorf("act %q is not empty: %w", act, models.ErrConflict)
		}
	}

	if err := a.fs.Remove(imagePath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", imagePath, err)
	}
	if err := a.fs.Remove(actPath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", actPath, err)
	}

	a.log.WithField("act", act).Info("Act dropped")
	return nil
}
