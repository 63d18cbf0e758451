package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/qualify/internal/backend"
	"github.com/Veraticus/qualify/internal/cli"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/watch"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Qualify documents dropped into an inbox directory",
		Long: `Watch a directory and submit each group of PDF or image documents as one
batch once no file has changed for the settle interval. The report of
every batch is exported to the output directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().Duration("settle", 0, "quiet period before a batch is submitted (default 2s)")
	cmd.Flags().StringP("output", "o", "", "directory for exported reports")

	_ = viper.BindPFlag("watch.settle", cmd.Flags().Lookup("settle"))

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	rt.applyOutputFlag(cmd)

	dir := rt.cfg.WatchDir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return common.NewUserError("Informe o diretório de entrada", common.NewValidationError("watch.dir", "no inbox directory"))
	}
	if rt.backend == nil {
		return common.NewUserError("Serviço de qualificação não configurado", fmt.Errorf("%w: backend.url", common.ErrMissingConfig))
	}

	inbox, err := watch.NewInbox(rt.cfg.WatchSettle)
	if err != nil {
		return err
	}
	defer func() { _ = inbox.Close() }()

	batches, err := inbox.Batches(ctx, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatInfo("Aguardando documentos em "+dir)) //nolint:forbidigo // User-facing output

	f := cli.NewFormatter()
	for paths := range batches {
		if err := processBatch(cmd, rt, f, paths); err != nil {
			common.LogError(err, "Batch failed", common.Fields{"files": len(paths)})
			fmt.Fprintln(out, cli.FormatError(err.Error())) //nolint:forbidigo // User-facing output
		}
	}
	return nil
}

func processBatch(cmd *cobra.Command, rt *appRuntime, f *cli.Formatter, paths []string) error {
	ctx := cmd.Context()
	slog.Info("Processing batch", "files", len(paths))

	files, err := backend.LoadUploads(paths)
	if err != nil {
		return err
	}

	session, err := rt.newSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := submitWithSpinner(cmd, session, files); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), f.FormatSummary(session.Snapshot())) //nolint:forbidigo // User-facing output

	res, err := session.ExportReport(ctx, rt.cfg.ExportFormat)
	if err != nil {
		return err
	}
	return saveExport(cmd, rt.cfg.ExportDir, res)
}
