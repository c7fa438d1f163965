package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-inherit/internal/duckdb"
	"github.com/inodb/vibe-inherit/internal/filter"
	"github.com/inodb/vibe-inherit/internal/output"
	"github.com/inodb/vibe-inherit/internal/pipeline"
	"github.com/inodb/vibe-inherit/internal/table"
)

func newTrioCmd() *cobra.Command {
	var a pipeline.Trio
	cmd := &cobra.Command{
		Use:   "trio [flags] <table>...",
		Short: "Screen an affected child against both parents",
		Long: `Screen an affected child against both parents for de novo, recessive,
X-linked and compound heterozygous variants, heterozygous calls and ClinVar
pathogenic calls. Output files are prefixed with the child's sample ID.`,
		Example: `  vibe-inherit trio -m MUM -f DAD -c KID family1.hg38_multianno.txt`,
		Args:    usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd.Context(), a, filter.ProfileHG38, args)
		},
	}
	cmd.Flags().StringVarP(&a.Mother, "mother", "m", "", "mother's sample ID")
	cmd.Flags().StringVarP(&a.Father, "father", "f", "", "father's sample ID")
	cmd.Flags().StringVarP(&a.Child, "child", "c", "", "affected child's sample ID")
	return cmd
}

func newFamilyCmd() *cobra.Command {
	var (
		sampleFile string
		ids        []string
	)
	cmd := &cobra.Command{
		Use:   "family [flags] <table>...",
		Short: "Screen related samples for shared genotypes",
		Long: `Screen any number of related samples for variants all of them carry
homozygous or heterozygous, and for ClinVar pathogenic calls any of them
carries. Without --samples or --sample-file every sample column is used.`,
		Example: `  vibe-inherit family -s siblings.txt cohort.hg38_multianno.txt
  vibe-inherit family --samples S1,S2 cohort.hg38_multianno.txt`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := pipeline.Family{IDs: ids}
			if sampleFile != "" {
				fromFile, err := readSampleFile(sampleFile)
				if err != nil {
					return err
				}
				a.IDs = append(a.IDs, fromFile...)
			}
			return runAnalysis(cmd.Context(), a, filter.ProfileHG38, args)
		},
	}
	cmd.Flags().StringVarP(&sampleFile, "sample-file", "s", "", "file with one sample ID per line")
	cmd.Flags().StringSliceVar(&ids, "samples", nil, "comma-separated sample IDs")
	return cmd
}

func newPreconceptionCmd() *cobra.Command {
	var a pipeline.Preconception
	cmd := &cobra.Command{
		Use:   "preconception [flags] <table>...",
		Short: "Screen a prospective parent pair for shared recessive risk",
		Long: `Screen a prospective parent pair for variants both carry heterozygous,
genes where each carries a different heterozygous variant, X-linked variants
the mother carries and ClinVar pathogenic calls either carries.`,
		Example: `  vibe-inherit preconception -m MUM -f DAD couple.hg38_multianno.txt`,
		Args:    usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd.Context(), a, filter.ProfileHG38Exclude, args)
		},
	}
	cmd.Flags().StringVarP(&a.Mother, "mother", "m", "", "mother's sample ID")
	cmd.Flags().StringVarP(&a.Father, "father", "f", "", "father's sample ID")
	return cmd
}

func newSplitCmd() *cobra.Command {
	var a pipeline.Split
	cmd := &cobra.Command{
		Use:   "split [flags] <table>...",
		Short: "Write one annotation table per sample",
		Long: `Write, for each sample, the annotation columns through FORMAT plus that
sample's genotype column. Rows where the sample is reference or missing are
dropped unless --keep-refs is given.`,
		Example: `  vibe-inherit split --sort cohort.hg38_multianno.txt`,
		Args:    usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd.Context(), a, filter.ProfileHG38, args)
		},
	}
	cmd.Flags().StringSliceVar(&a.IDs, "samples", nil, "comma-separated sample IDs (default all)")
	cmd.Flags().BoolVar(&a.KeepRefs, "keep-refs", false, "keep rows where the sample is reference or missing")
	cmd.Flags().BoolVar(&a.Sort, "sort", false, "sort rows by chromosome and start")
	return cmd
}

// runAnalysis runs a on every input table, up to --jobs at a time.
func runAnalysis(ctx context.Context, a pipeline.Analysis, defaultProfile string, inputs []string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := checkInputs(inputs); err != nil {
		return err
	}

	name := viper.GetString("profile")
	if name == "" {
		name = defaultProfile
	}
	cfg, err := resolveProfile(name)
	if err != nil {
		return err
	}

	engine := pipeline.NewEngine(cfg)
	engine.SetLogger(logger)

	dir, err := output.NewDir(viper.GetString("output.dir"), viper.GetBool("output.gzip"))
	if err != nil {
		return err
	}
	dir.SetLogger(logger)
	sinks := pipeline.Sinks{dir}

	var store *duckdb.Store
	if path := viper.GetString("output.duckdb"); path != "" {
		if store, err = duckdb.Open(path); err != nil {
			return err
		}
		defer store.Close()
		sinks = append(sinks, store.Sink(cfg.GeneColumns, cfg.FuncColumns))
	}

	if ctx == nil {
		ctx = context.Background()
	}
	jobs := viper.GetInt("jobs")
	if jobs < 1 {
		jobs = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, path := range inputs {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return processInput(engine, a, path, sinks, store)
		})
	}
	return g.Wait()
}

// processInput loads one table and runs the analysis on it. The table is
// checked against the analysis before anything is written.
func processInput(engine *pipeline.Engine, a pipeline.Analysis, path string, sink pipeline.Sink, store *duckdb.Store) error {
	tbl, err := table.Load(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("loaded table",
		zap.String("path", path),
		zap.Int("rows", tbl.Len()),
		zap.Strings("samples", tbl.Schema.Samples()))

	prepared, err := engine.Prepare(a, tbl)
	if err != nil {
		return err
	}

	if store != nil {
		src := duckdb.Source{
			Name:     tbl.Name,
			Rows:     int64(tbl.Len()),
			Analysis: prepared.Analysis(),
			Samples:  prepared.Samples(),
		}
		src.Path = path
		if path != "-" {
			if fp, err := duckdb.StatFile(path); err == nil {
				src.FileFingerprint = fp
			}
		}
		if err := store.RecordSource(src); err != nil {
			return err
		}
	}

	return prepared.Emit(sink)
}

// checkInputs rejects inputs whose outputs would collide.
func checkInputs(inputs []string) error {
	seen := make(map[string]string, len(inputs))
	for _, path := range inputs {
		name := outputSource(path)
		if prev, ok := seen[name]; ok {
			return &pipeline.ConfigError{Field: "input", Message: fmt.Sprintf("%s and %s share the output name %s", prev, path, name)}
		}
		seen[name] = path
	}
	return nil
}

// outputSource mirrors the table name table.Load gives path.
func outputSource(path string) string {
	if path == "-" {
		return "stdin"
	}
	return strings.TrimSuffix(filepath.Base(path), ".gz")
}

// readSampleFile reads one sample ID per line. Blank lines and lines
// starting with '#' are skipped.
func readSampleFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample file: %w", err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read sample file: %w", err)
	}
	if len(ids) == 0 {
		return nil, &pipeline.ConfigError{Field: "sample-file", Message: path + " lists no samples"}
	}
	return ids, nil
}
