package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-inherit/internal/duckdb"
	"github.com/inodb/vibe-inherit/internal/output"
	"github.com/inodb/vibe-inherit/internal/pipeline"
)

func newGenesCmd() *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "genes [gene]...",
		Short: "Query candidates stored with --duckdb",
		Long: `Without arguments, list every gene with stored candidates and how many
variants, sets and input tables it appears in. With gene names, list the
stored candidates of those genes.`,
		Example: `  vibe-inherit genes --duckdb cohort.duckdb --label BestGeneCandidates
  vibe-inherit genes --duckdb cohort.duckdb SCN1A CFTR`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("output.duckdb")
			if path == "" {
				return &pipeline.ConfigError{Field: "duckdb", Message: "a database path is required"}
			}
			if _, err := os.Stat(path); err != nil {
				if os.IsNotExist(err) {
					return &pipeline.ConfigError{Field: "duckdb", Message: path + " does not exist"}
				}
				return err
			}
			store, err := duckdb.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 0 {
				return writeGeneCounts(cmd, store, label)
			}
			return writeGeneCandidates(cmd, store, args)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "only count sets whose name ends with this label")
	return cmd
}

func writeGeneCounts(cmd *cobra.Command, store *duckdb.Store, label string) error {
	counts, err := store.Genes(label)
	if err != nil {
		return err
	}
	tw := output.NewTabWriter(cmd.OutOrStdout(), []string{"gene", "variants", "sets", "sources"})
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, c := range counts {
		if err := tw.Write([]string{
			c.Gene,
			strconv.FormatInt(c.Variants, 10),
			strconv.FormatInt(c.Sets, 10),
			strconv.FormatInt(c.Sources, 10),
		}); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeGeneCandidates(cmd *cobra.Command, store *duckdb.Store, genes []string) error {
	tw := output.NewTabWriter(cmd.OutOrStdout(), []string{"gene", "source", "set", "chrom", "pos", "ref", "alt", "consequence"})
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, gene := range genes {
		cands, err := store.SearchByGene(gene)
		if err != nil {
			return err
		}
		for _, c := range cands {
			if err := tw.Write([]string{
				c.Gene, c.Source, c.Set,
				c.Chrom, strconv.FormatInt(c.Pos, 10), c.Ref, c.Alt,
				c.Consequence,
			}); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}
