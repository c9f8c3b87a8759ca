package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/validate-cli/internal/dataset"
	"github.com/sells-group/validate-cli/internal/model"
	"github.com/sells-group/validate-cli/internal/pipeline"
	"github.com/sells-group/validate-cli/internal/report"
)

var (
	runDataset     string
	runMappings    string
	runURLTemplate string
	runFormat      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Validate a dataset against live pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		records, err := dataset.Load(runDataset)
		if err != nil {
			return err
		}
		mappings, err := dataset.LoadMappings(runMappings)
		if err != nil {
			return err
		}

		zap.L().Info("dataset loaded",
			zap.Int("records", len(records)),
			zap.Int("fields", len(mappings.Mappings)),
		)

		batch, err := buildBatch(st, zap.L())
		if err != nil {
			return err
		}

		run, err := st.CreateRun(ctx, runDataset, runURLTemplate)
		if err != nil {
			return err
		}
		if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
			return err
		}

		start := time.Now()
		verdicts := batch.Run(ctx, run.ID, runURLTemplate, records, mappings)
		result := pipeline.Summarize(verdicts, time.Since(start).Milliseconds())

		if err := st.UpdateRunResult(ctx, run.ID, result); err != nil {
			return err
		}
		run.Result = result
		run.Status = model.RunStatusComplete

		zap.L().Info("validation complete",
			zap.String("run_id", run.ID),
			zap.Int("records", result.RecordsTotal),
			zap.Int("matched", result.RecordsMatched),
			zap.Int("failed", result.RecordsFailed),
			zap.Float64("mean_confidence", result.MeanConfidence),
		)

		switch runFormat {
		case "markdown":
			fmt.Fprintln(os.Stdout, report.Markdown(run, verdicts))
		case "json":
			out, err := report.JSON(run, verdicts)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, out)
		default:
			return eris.Errorf("unsupported output format: %s", runFormat)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runDataset, "dataset", "", "path to the CSV or XLSX dataset (required)")
	runCmd.Flags().StringVar(&runMappings, "mappings", "", "path to the YAML field mapping file (required)")
	runCmd.Flags().StringVar(&runURLTemplate, "url-template", "", "URL template with {column} placeholders (required)")
	runCmd.Flags().StringVar(&runFormat, "format", "markdown", "output format: markdown or json")
	_ = runCmd.MarkFlagRequired("dataset")
	_ = runCmd.MarkFlagRequired("mappings")
	_ = runCmd.MarkFlagRequired("url-template")
	rootCmd.AddCommand(runCmd)
}
