// Package syncer reconciles the translated archive with the original pages.
package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hs-ru/pagesync/internal/archive"
	"github.com/hs-ru/pagesync/internal/logger"
	"github.com/hs-ru/pagesync/internal/models"
	"github.com/hs-ru/pagesync/internal/parser"
)

// ErrNoPublisher is returned by Publish when no publisher is configured
var ErrNoPublisher = errors.New("no publisher configured")

//go:generate mockgen -source=syncer.go -destination=mock_syncer/mock_syncer.go -package=mock_syncer
type (
	// PageSource provides the original pages and their assets
	PageSource interface {
		FetchPage(ctx context.Context, number string) (string, error)
		FetchAsset(ctx context.Context, link string) ([]byte, error)
	}

	// Publisher mirrors translated pages to an external service
	Publisher interface {
		Publish(ctx context.Context, ref models.PageRef, rec models.Record) error
	}
)

// Syncer pulls original pages into the archive
type Syncer struct {
	src       PageSource
	archive   *archive.Archive
	publisher Publisher
	log       *logrus.Entry
}

// Option configures a Syncer
type Option func(*Syncer)

// WithPublisher enables Publish
func WithPublisher(p Publisher) Option {
	return func(s *Syncer) {
		s.publisher = p
	}
}

// New creates a syncer over an archive
func New(src PageSource, arc *archive.Archive, opts ...Option) *Syncer {
	s := &Syncer{
		src:     src,
		archive: arc,
		log:     logger.WithComponent("syncer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status describes how a translated page compares to the original
type Status struct {
	Number  string
	Act     string
	Local   bool
	Changed []string
}

// Result describes what Pull did to a page
type Result struct {
	Number  string
	Act     string
	Created bool
	Updated bool
	Changed []string
	Images  int
}

// fetchRemote downloads a page and reduces its links to the stored form
func (s *Syncer) fetchRemote(ctx context.Context, number string) (remote, stored models.Record, err error) {
	text, err := s.src.FetchPage(ctx, number)
	if err != nil {
		return models.Record{}, models.Record{}, err
	}
	remote, err = parser.Parse(text)
	if err != nil {
		return models.Record{}, models.Record{}, fmt.Errorf("remote page %s: %w", number, err)
	}
	stored = remote
	stored.Links = parser.ReduceLinks(remote.Links)
	return remote, stored, nil
}

// Status compares the structural fields of a local page with the original
func (s *Syncer) Status(ctx context.Context, number string) (Status, error) {
	_, stored, err := s.fetchRemote(ctx, number)
	if err != nil {
		return Status{}, err
	}

	st := Status{Number: number}
	local, err := s.archive.ReadPage(number)
	if errors.Is(err, models.ErrNotFound) {
		return st, nil
	}
	if err != nil {
		return Status{}, err
	}

	st.Local = true
	st.Changed = parser.Diff(local, parser.Merge(local, stored))
	if st.Act, err = s.archive.PageAct(number); err != nil {
		return Status{}, err
	}
	return st, nil
}

// Pull brings page number in line with the original. An existing page keeps
// its translated caption and body; a new page is created in act, or in the act
// of the latest page when act is empty. Missing images are downloaded.
func (s *Syncer) Pull(ctx context.Context, number, act string) (Result, error) {
	remote, stored, err := s.fetchRemote(ctx, number)
	if err != nil {
		return Result{}, err
	}

	res := Result{Number: number}
	local, err := s.archive.ReadPage(number)
	switch {
	case err == nil:
		if res.Act, err = s.archive.PageAct(number); err != nil {
			return res, err
		}
		merged := parser.Merge(local, stored)
		res.Changed = parser.Diff(local, merged)
		if len(res.Changed) > 0 {
			if err := s.archive.WritePage(number, parser.Assemble(merged)); err != nil {
				return res, err
			}
			res.Updated = true
		}
	case errors.Is(err, models.ErrNotFound):
		if res.Act, err = s.targetAct(act); err != nil {
			return res, err
		}
		if err := s.archive.CreatePage(number, res.Act, parser.Assemble(remote)); err != nil {
			return res, err
		}
		res.Created = true
	default:
		return res, err
	}

	if res.Images, err = s.pullImages(ctx, res.Act, remote.Links); err != nil {
		return res, err
	}

	s.log.WithFields(map[string]interface{}{
		"page":    number,
		"act":     res.Act,
		"created": res.Created,
		"updated": res.Updated,
		"changed": res.Changed,
		"images":  res.Images,
	}).Info("Page pulled")
	return res, nil
}

func (s *Syncer) targetAct(act string) (string, error) {
	if act != "" {
		return act, nil
	}
	latest, found, err := s.archive.LatestPage()
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.New("act is required for the first page of an empty archive")
	}
	return latest.Act, nil
}

// pullImages downloads the content links not yet present in act
func (s *Syncer) pullImages(ctx context.Context, act, links string) (int, error) {
	count := 0
	for _, link := range parser.SplitLinks(links) {
		name := parser.LinkFilename(link)
		exists, err := s.archive.ImageExists(act, name)
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		data, err := s.src.FetchAsset(ctx, link)
		if err != nil {
			return count, err
		}
		if err := s.archive.CreateImage(data, parser.ExpandSpecialLink(link), act); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// PullRange pulls pages from through to, stopping at the first error
func (s *Syncer) PullRange(ctx context.Context, from, to int, act string) ([]Result, error) {
	if from > to {
		return nil, fmt.Errorf("invalid range %d-%d", from, to)
	}

	var results []Result
	for n := from; n <= to; n++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.Pull(ctx, models.FormatPageNumber(n), act)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Publish sends a translated page to the configured publisher
func (s *Syncer) Publish(ctx context.Context, number string) error {
	if s.publisher == nil {
		return ErrNoPublisher
	}

	rec, err := s.archive.ReadPage(number)
	if err != nil {
		return err
	}
	act, err := s.archive.PageAct(number)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, models.PageRef{Number: number, Act: act}, rec)
}
