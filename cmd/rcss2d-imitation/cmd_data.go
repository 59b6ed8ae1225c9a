package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/montplusa/rcss2d-imitation/pkg/dataset"
	"github.com/montplusa/rcss2d-imitation/pkg/store"
	"github.com/montplusa/rcss2d-imitation/pkg/table"
)

var (
	inputDir  string
	outputDir string
	compress  bool
	workers   int
	dbPath    string
	tablePath string
)

// dataCmd groups the log table commands
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Prepare log tables for training",
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Keep the training columns of every table",
	Long: `Reads every .csv and .csv.gz table in the input directory (and its direct
subdirectories), keeps the columns used for training and writes one table per
input to the output directory. Unrecognized tables are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, (*dataset.Pipeline).Extract)
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Scale every supported column into [-1, 1]",
	Long: `Reads every table in the input directory and writes it to the output
directory with each supported column normalized. Rows and columns are kept;
empty cells stay empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, (*dataset.Pipeline).Normalize)
	},
}

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Join normalized match tables into one training table",
	Long: `Groups the normalized tables of the input directory by match and joins the
match, playertypes and command tables of each complete group into one row per
player command. A player keeps one command per cycle, in the order tackle,
kick, turn, dash. The rows of every match are written to a single table that
train reads.`,
	RunE: runAssemble,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Record matches and player types in SQLite",
	RunE:  runIndex,
}

func pipeline(cmd *cobra.Command) *dataset.Pipeline {
	p := &dataset.Pipeline{
		Workers:  cfg.Data.Workers,
		Compress: cfg.Data.Compress,
		OutDir:   outputDir,
		Logger:   logger,
	}
	if cmd.Flags().Changed("compress") {
		p.Compress = compress
	}
	if cmd.Flags().Changed("workers") {
		p.Workers = workers
	}
	return p
}

func listTables(dir string) ([]string, error) {
	plain, compressed, err := dataset.ListCSVs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	paths := slices.Concat(plain, compressed)
	slices.Sort(paths)
	logger.Info("found tables", zap.String("dir", dir), zap.Int("plain", len(plain)), zap.Int("compressed", len(compressed)))
	return paths, nil
}

func runPipeline(cmd *cobra.Command, run func(*dataset.Pipeline, context.Context, []string) (dataset.Summary, error)) error {
	paths, err := listTables(inputDir)
	if err != nil {
		return err
	}
	sum, err := run(pipeline(cmd), cmd.Context(), paths)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sum)
	if err := sum.Err(); err != nil {
		return fmt.Errorf("%d tables failed: %w", len(sum.Failures), err)
	}
	return nil
}

func runAssemble(cmd *cobra.Command, args []string) error {
	paths, err := listTables(inputDir)
	if err != nil {
		return err
	}
	sum, stats, err := pipeline(cmd).Assemble(cmd.Context(), paths, tablePath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", sum, stats)
	if err := sum.Err(); err != nil {
		return fmt.Errorf("%d matches failed: %w", len(sum.Failures), err)
	}
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := cfg.Store.Path
	if cmd.Flags().Changed("db") {
		path = dbPath
	}
	paths, err := listTables(inputDir)
	if err != nil {
		return err
	}

	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	// the store serializes writes on one connection
	p := &dataset.Pipeline{Workers: 1, Logger: logger}
	sum, err := p.Run(cmd.Context(), paths, func(ctx context.Context, path string) (string, error) {
		info, err := s.IndexFile(ctx, path)
		if errors.Is(err, store.ErrNotPlayerTypes) || errors.Is(err, table.ErrUnrecognizedTableType) {
			return "", fmt.Errorf("%w: %w", dataset.ErrSkip, err)
		}
		if err != nil {
			return "", err
		}
		logger.Debug("indexed match", zap.String("timestamp", info.Timestamp),
			zap.String("left", info.LeftTeam), zap.String("right", info.RightTeam))
		return info.Timestamp, nil
	})
	if err != nil {
		return err
	}

	matches, err := s.Matches(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s matches=%d\n", sum, len(matches))
	if err := sum.Err(); err != nil {
		return fmt.Errorf("%d tables failed: %w", len(sum.Failures), err)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{extractCmd, normalizeCmd} {
		c.Flags().StringVarP(&inputDir, "input", "i", "", "Directory of log tables (required)")
		c.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (required)")
		c.Flags().BoolVarP(&compress, "compress", "c", false, "Write gzip compressed tables")
		c.Flags().IntVar(&workers, "workers", 0, "Parallel workers (default: data.workers)")
		c.MarkFlagRequired("input")
		c.MarkFlagRequired("output")
	}
	assembleCmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory of normalized tables (required)")
	assembleCmd.Flags().StringVarP(&tablePath, "output", "o", "", "Training table to write, gzip compressed for .gz (required)")
	assembleCmd.Flags().IntVar(&workers, "workers", 0, "Parallel workers (default: data.workers)")
	assembleCmd.MarkFlagRequired("input")
	assembleCmd.MarkFlagRequired("output")

	indexCmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory of log tables (required)")
	indexCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (default: store.path)")
	indexCmd.MarkFlagRequired("input")

	dataCmd.AddCommand(extractCmd)
	dataCmd.AddCommand(normalizeCmd)
	dataCmd.AddCommand(assembleCmd)
	dataCmd.AddCommand(indexCmd)
}
