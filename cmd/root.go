package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hs-ru/pagesync/internal/archive"
	"github.com/hs-ru/pagesync/internal/config"
	"github.com/hs-ru/pagesync/internal/logger"
	"github.com/hs-ru/pagesync/internal/notion"
	"github.com/hs-ru/pagesync/internal/source"
	"github.com/hs-ru/pagesync/internal/syncer"
)

type commandContext struct {
	configFlag   string
	rootFlag     string
	logLevelFlag string

	config  *config.Config
	archive *archive.Archive
}

// load reads the configuration once flags are parsed and opens the archive
func (c *commandContext) load() error {
	cfg, err := config.Load(strings.TrimSpace(c.configFlag))
	if err != nil {
		return err
	}
	if c.rootFlag != "" {
		cfg.Root = c.rootFlag
	}
	if c.logLevelFlag != "" {
		cfg.Log.Level = c.logLevelFlag
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	arc, err := archive.NewOS(cfg.Root, archive.WithImageDir(cfg.ImageDir))
	if err != nil {
		return err
	}
	c.config = cfg
	c.archive = arc
	return nil
}

func (c *commandContext) source() *source.Client {
	return source.New(c.config.Source)
}

func (c *commandContext) syncer(opts ...syncer.Option) *syncer.Syncer {
	return syncer.New(c.source(), c.archive, opts...)
}

// publisher builds the Notion client when publishing is enabled
func (c *commandContext) publisher() (syncer.Publisher, error) {
	if !c.config.Notion.Enabled {
		return nil, syncer.ErrNoPublisher
	}
	client, err := notion.New(c.config.Notion)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// withLock runs fn while holding the repository lock
func (c *commandContext) withLock(fn func() error) (err error) {
	lock, err := archive.AcquireLock(c.archive.Root())
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil && err == nil {
			err = fmt.Errorf("release lock: %w", releaseErr)
		}
	}()
	return fn()
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "pagesync",
		Short:         "Keep a translated page archive in sync with the original comic",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.rootFlag, "root", "", "Archive root directory")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newFetchCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newPullCommand(ctx))
	rootCmd.AddCommand(newPublishCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newLatestCommand(ctx))
	rootCmd.AddCommand(newLocateCommand(ctx))
	rootCmd.AddCommand(newImagesCommand(ctx))
	rootCmd.AddCommand(newCreateActCommand(ctx))
	rootCmd.AddCommand(newMoveCommand(ctx))
	rootCmd.AddCommand(newDropActCommand(ctx))

	return rootCmd
}
