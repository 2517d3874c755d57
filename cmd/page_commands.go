package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hs-ru/pagesync/internal/logger"
	"github.com/hs-ru/pagesync/internal/models"
	"github.com/hs-ru/pagesync/internal/parser"
	"github.com/hs-ru/pagesync/internal/syncer"
)

const maxPageNumber = 999999

// parsePageNumber accepts a page number with or without leading zeros
func parsePageNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 0 || n > maxPageNumber {
		return 0, fmt.Errorf("invalid page number %q", arg)
	}
	return n, nil
}

func pageNumberArg(arg string) (string, error) {
	n, err := parsePageNumber(arg)
	if err != nil {
		return "", err
	}
	return models.FormatPageNumber(n), nil
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "fetch <page>",
		Short: "Print an original page in stored form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := pageNumberArg(args[0])
			if err != nil {
				return err
			}

			src := ctx.source()
			if raw {
				text, err := src.FetchPage(cmd.Context(), number)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}

			rec, err := src.FetchPageRecord(cmd.Context(), number)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), parser.Assemble(rec))
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the page text without reducing links")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <page>",
		Short: "Compare a translated page with the original",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := pageNumberArg(args[0])
			if err != nil {
				return err
			}

			st, err := ctx.syncer().Status(cmd.Context(), number)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case !st.Local:
				_, err = fmt.Fprintf(out, "%s\tmissing\n", st.Number)
			case len(st.Changed) == 0:
				_, err = fmt.Fprintf(out, "%s\t%s\tup to date\n", st.Number, st.Act)
			default:
				_, err = fmt.Fprintf(out, "%s\t%s\tchanged: %s\n", st.Number, st.Act, strings.Join(st.Changed, ", "))
			}
			return err
		},
	}
}

func newPullCommand(ctx *commandContext) *cobra.Command {
	var act string
	var to string

	cmd := &cobra.Command{
		Use:   "pull <page>",
		Short: "Create or update translated pages from the original",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parsePageNumber(args[0])
			if err != nil {
				return err
			}
			last := from
			if to != "" {
				if last, err = parsePageNumber(to); err != nil {
					return err
				}
			}

			var results []syncer.Result
			err = ctx.withLock(func() error {
				var pullErr error
				results, pullErr = ctx.syncer().PullRange(cmd.Context(), from, last, act)
				return pullErr
			})

			rows := make([][]string, 0, len(results))
			created, updated, images := 0, 0, 0
			for _, res := range results {
				rows = append(rows, []string{res.Number, res.Act, pullState(res), strconv.Itoa(res.Images)})
				if res.Created {
					created++
				}
				if res.Updated {
					updated++
				}
				images += res.Images
			}
			fields := map[string]interface{}{
				"pages":   len(results),
				"created": created,
				"updated": updated,
				"images":  images,
			}
			if err != nil {
				logger.Error("Pull stopped", err, fields)
			} else {
				logger.Info("Pull completed", fields)
			}
			if writeErr := writeRows(cmd.OutOrStdout(), []string{"Page", "Act", "State", "Images"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}); writeErr != nil {
				return errors.Join(err, writeErr)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&act, "act", "", "Act for new pages (default: act of the latest page)")
	cmd.Flags().StringVar(&to, "to", "", "Pull every page up to and including this one")
	return cmd
}

func pullState(res syncer.Result) string {
	switch {
	case res.Created:
		return "created"
	case res.Updated:
		return "updated: " + strings.Join(res.Changed, ", ")
	default:
		return "unchanged"
	}
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <page>",
		Short: "Mirror a translated page to Notion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := pageNumberArg(args[0])
			if err != nil {
				return err
			}

			pub, err := ctx.publisher()
			if err != nil {
				return err
			}
			if err := ctx.syncer(syncer.WithPublisher(pub)).Publish(cmd.Context(), number); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", number)
			return err
		},
	}
}
