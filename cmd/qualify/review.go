package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/qualify/internal/backend"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/tui"
	"github.com/Veraticus/qualify/internal/tui/themes"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review [files...]",
		Short: "Review a qualification interactively",
		Long: `Open the interactive review screen. Files given on the command line are
submitted when the screen opens and can be resubmitted with "s". Use
--replay to start from a saved service response.`,
		RunE: runReview,
	}

	cmd.Flags().String("replay", "", "start from a saved service response")
	cmd.Flags().String("theme", "", "color theme (default, mocha)")
	cmd.Flags().StringP("output", "o", "", "directory for exported files")

	_ = viper.BindPFlag("tui.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	replay, _ := cmd.Flags().GetString("replay")

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	rt.applyOutputFlag(cmd)

	theme, ok := themes.ByName(rt.cfg.Theme)
	if !ok {
		return fmt.Errorf("%w: unknown theme %q", common.ErrInvalidConfig, rt.cfg.Theme)
	}

	var files []backend.Upload
	if len(args) > 0 {
		if files, err = backend.LoadUploads(args); err != nil {
			return err
		}
	}

	session, err := rt.startSession(ctx, replay)
	if err != nil {
		return err
	}
	defer session.Close()

	opts := []tui.Option{
		tui.WithTheme(theme),
		tui.WithOutputDir(rt.cfg.ExportDir),
		tui.WithReportFormat(rt.cfg.ExportFormat),
		tui.WithFiles(files, replay == "" && len(files) > 0),
	}
	if rt.cfg.BackendTimeout > 0 {
		opts = append(opts, tui.WithTimeout(rt.cfg.BackendTimeout))
	}
	return tui.Run(ctx, session, opts...)
}
