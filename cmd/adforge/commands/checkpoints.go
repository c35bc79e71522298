package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brightwell/adforge/pkg/checkpoint"
	"github.com/brightwell/adforge/pkg/cli"
)

var checkpointFlags struct {
	dir    string
	format string
	filter string
	stage  string
}

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Inspect saved pipeline checkpoints",
	Long: `Inspect the per-stage snapshots of past runs in a durable checkpoint
directory (created with 'adforge run --checkpoints' or --checkpoint-dir).
Without --dir, the default data dir (~/.adforge/adforge/data/checkpoints)
is used.

Examples:
  adforge checkpoints list
  adforge checkpoints show <run-id>
  adforge checkpoints show --dir ./checkpoints <run-id> --stage strategy
  adforge checkpoints delete <run-id>`,
}

// defaultCheckpointDir is where 'run --checkpoints' saves records when no
// explicit directory is given.
func defaultCheckpointDir() (string, error) {
	paths, err := cli.NewPaths("adforge")
	if err != nil {
		return "", err
	}
	if err := paths.EnsureDataDir(); err != nil {
		return "", err
	}
	return paths.DataPath("checkpoints"), nil
}

func openCheckpointStore() (*checkpoint.Badger, error) {
	dir := checkpointFlags.dir
	if dir == "" {
		var err error
		if dir, err = defaultCheckpointDir(); err != nil {
			return nil, err
		}
	}
	return checkpoint.NewBadger(checkpoint.BadgerOptions{Dir: dir})
}

var checkpointsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs with saved checkpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCheckpointStore()
		if err != nil {
			return err
		}
		defer store.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tTOPIC\tSTAGES\tSIZE\tLAST SAVED")

		count := 0
		for runID, err := range store.Runs(cmd.Context()) {
			if err != nil {
				return err
			}
			topic, stages, last := "", 0, ""
			var size int64
			for rec, err := range store.List(cmd.Context(), runID) {
				if err != nil {
					return err
				}
				topic = rec.Topic
				stages++
				size += int64(len(rec.Payload))
				if t := rec.SavedAt; last == "" || t.Format("2006-01-02 15:04:05") > last {
					last = t.Format("2006-01-02 15:04:05")
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", runID, topic, stages, cli.FormatBytes(size), last)
			count++
		}
		w.Flush()

		if count == 0 {
			fmt.Println("No checkpoints found.")
		}
		return nil
	},
}

// checkpointView is the output shape for 'checkpoints show'.
type checkpointView struct {
	RunID    string `json:"run_id" yaml:"run_id"`
	Stage    string `json:"stage" yaml:"stage"`
	Topic    string `json:"topic" yaml:"topic"`
	SavedAt  string `json:"saved_at" yaml:"saved_at"`
	Artifact any    `json:"artifact" yaml:"artifact"`
}

func viewOf(rec *checkpoint.Record) checkpointView {
	v := checkpointView{
		RunID:   rec.RunID,
		Stage:   rec.Stage,
		Topic:   rec.Topic,
		SavedAt: rec.SavedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if err := json.Unmarshal(rec.Payload, &v.Artifact); err != nil {
		v.Artifact = string(rec.Payload)
	}
	return v
}

var checkpointsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the saved artifacts of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCheckpointStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runID := args[0]
		opts := cli.OutputOptions{
			Format: cli.OutputFormat(checkpointFlags.format),
			Filter: checkpointFlags.filter,
		}

		if checkpointFlags.stage != "" {
			rec, err := store.Load(cmd.Context(), runID, checkpointFlags.stage)
			if err != nil {
				return err
			}
			return cli.Output(viewOf(rec), opts)
		}

		var views []checkpointView
		for rec, err := range store.List(cmd.Context(), runID) {
			if err != nil {
				return err
			}
			views = append(views, viewOf(rec))
		}
		if len(views) == 0 {
			return fmt.Errorf("no checkpoints for run %q", runID)
		}
		return cli.Output(views, opts)
	},
}

var checkpointsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete all checkpoints of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCheckpointStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Deleted checkpoints for run %s", args[0])
		return nil
	},
}

func init() {
	checkpointsCmd.PersistentFlags().StringVar(&checkpointFlags.dir, "dir", "", "checkpoint directory")
	checkpointsShowCmd.Flags().StringVar(&checkpointFlags.stage, "stage", "", "show a single stage artifact")
	checkpointsShowCmd.Flags().StringVar(&checkpointFlags.format, "format", "yaml", "output format (yaml, json, raw)")
	checkpointsShowCmd.Flags().StringVar(&checkpointFlags.filter, "filter", "", "jq expression applied to the output")

	checkpointsCmd.AddCommand(checkpointsListCmd)
	checkpointsCmd.AddCommand(checkpointsShowCmd)
	checkpointsCmd.AddCommand(checkpointsDeleteCmd)
	rootCmd.AddCommand(checkpointsCmd)
}
