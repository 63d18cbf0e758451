package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/qualify/internal/backend"
	"github.com/Veraticus/qualify/internal/cli"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/export"
	"github.com/Veraticus/qualify/internal/qualification"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Qualify a batch of documents and print the checklist",
		Long: `Send PDF or image documents to the qualification service and print the
reconciled checklist. Use --replay to reconcile a saved service response
without calling the service.`,
		RunE: runAnalyze,
	}

	cmd.Flags().String("replay", "", "reconcile a saved service response instead of submitting")
	cmd.Flags().BoolP("verbose", "v", false, "show justifications for every item")
	cmd.Flags().StringP("export", "e", "", "export the report in this format (doc, html, pdf)")
	cmd.Flags().Bool("note", false, "export the regulatory note when requirements exist")
	cmd.Flags().StringP("output", "o", "", "directory for exported files")


	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	replay, _ := cmd.Flags().GetString("replay")
	verbose, _ := cmd.Flags().GetBool("verbose")
	exportFormat, _ := cmd.Flags().GetString("export")
	wantNote, _ := cmd.Flags().GetBool("note")

	if replay == "" && len(args) == 0 {
		return common.NewUserError("Informe os documentos ou --replay", common.NewValidationError("files", "no documents given"))
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	rt.applyOutputFlag(cmd)

	session, err := rt.startSession(ctx, replay)
	if err != nil {
		return err
	}
	defer session.Close()

	if replay == "" {
		files, err := backend.LoadUploads(args)
		if err != nil {
			return err
		}
		if err := submitWithSpinner(cmd, session, files); err != nil {
			return err
		}
	}

	f := cli.NewFormatter()
	f.Verbose = verbose
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, f.FormatSummary(session.Snapshot()))    //nolint:forbidigo // User-facing output
	fmt.Fprintln(out, f.FormatDocuments(session.Documents())) //nolint:forbidigo // User-facing output
	fmt.Fprintln(out)                                         //nolint:forbidigo // User-facing output
	fmt.Fprintln(out, f.FormatChecklist(session.Snapshot()))  //nolint:forbidigo // User-facing output
	if alerts := session.Alerts(); len(alerts) > 0 {
		fmt.Fprintln(out)                          //nolint:forbidigo // User-facing output
		fmt.Fprintln(out, f.FormatAlerts(alerts)) //nolint:forbidigo // User-facing output
	}

	if exportFormat != "" {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		res, err := session.ExportReport(ctx, format)
		if err != nil {
			return err
		}
		if err := saveExport(cmd, rt.cfg.ExportDir, res); err != nil {
			return err
		}
	}

	if wantNote {
		res, err := session.ExportNote(ctx)
		switch {
		case err == nil:
			return saveExport(cmd, rt.cfg.ExportDir, res)
		case common.Classify(err) == common.KindNoAnalysis:
			return err
		default:
			fmt.Fprintln(out, cli.FormatInfo("Nota devolutiva não gerada: "+err.Error())) //nolint:forbidigo // User-facing output
		}
	}
	return nil
}

func submitWithSpinner(cmd *cobra.Command, session *qualification.Session, files []backend.Upload) error {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(fmt.Sprintf("Analisando %d documento(s)...", len(files))),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	_, err := session.Submit(cmd.Context(), files)
	close(done)
	_ = bar.Finish()
	return err
}

func saveExport(cmd *cobra.Command, dir string, res *export.Result) error {
	path, err := res.Save(dir)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Exportado: "+path)) //nolint:forbidigo // User-facing output
	return nil
}
