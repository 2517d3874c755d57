package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/hs-ru/pagesync/internal/logger"
	"github.com/hs-ru/pagesync/internal/models"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every translated page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := ctx.archive.ListPages()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(refs))
			for _, ref := range refs {
				rows = append(rows, []string{ref.Number, ref.Act})
			}
			return writeRows(cmd.OutOrStdout(), []string{"Page", "Act"}, rows, nil)
		},
	}
}

func newLatestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Print the highest numbered page and its act",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, found, err := ctx.archive.LatestPage()
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("archive is empty: %w", models.ErrNotFound)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ref.Number, ref.Act)
			return err
		},
	}
}

func newLocateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "locate <page>",
		Short: "Print the path of a translated page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := pageNumberArg(args[0])
			if err != nil {
				return err
			}
			path, found, err := ctx.archive.LocatePage(number)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("page %s: %w", number, models.ErrNotFound)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}

func newImagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "images <page>",
		Short: "List the local images a page links to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := pageNumberArg(args[0])
			if err != nil {
				return err
			}
			paths, err := ctx.archive.LocateImages(number)
			if err != nil {
				return err
			}

			fs := afero.NewOsFs()
			rows := make([][]string, 0, len(paths))
			for _, p := range paths {
				size := "?"
				if info, err := fs.Stat(p); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				} else {
					logger.Warn("Failed to stat image", map[string]interface{}{"path": p, "error": err.Error()})
				}
				rows = append(rows, []string{p, size})
			}
			return writeRows(cmd.OutOrStdout(), []string{"Path", "Size"}, rows,
				[]columnAlignment{alignLeft, alignRight})
		},
	}
}

func newCreateActCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create-act <act>",
		Short: "Create an act directory with its image directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := ctx.withLock(func() error {
				return ctx.archive.CreateAct(args[0])
			})
			if err != nil {
				return err
			}
			logger.Info("Act created", map[string]interface{}{"act": args[0]})
			return nil
		},
	}
}

func newMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <page> <act>",
		Short: "Move a page and its images to another act",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := pageNumberArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withLock(func() error {
				return ctx.archive.MovePage(number, args[1])
			})
		},
	}
}

func newDropActCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drop-act <act>",
		Short: "Remove an empty act directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func() error {
				return ctx.archive.DropAct(args[0])
			})
		},
	}
}
