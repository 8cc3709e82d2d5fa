package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "proflink",
		Short: "Link instructor records to external rating providers and publish composite ratings",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: PROFLINK_CONFIG)")

	root.AddCommand(serveCmd())
	root.AddCommand(matchCmd())
	root.AddCommand(genCmd())

	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func matchCmd() *cobra.Command {
	var term string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run one matching batch and print the run summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMatch(term)
		},
	}

	cmd.Flags().StringVar(&term, "term", "", "academic term, e.g. fall-2026")
	_ = cmd.MarkFlagRequired("term")
	return cmd
}

func genCmd() *cobra.Command {
	var (
		term        string
		out         string
		instructors int
		seed        int64
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate deterministic snapshot and dataset fixtures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGen(term, out, instructors, seed)
		},
	}

	cmd.Flags().StringVar(&term, "term", "fall-2026", "term directory to generate")
	cmd.Flags().StringVar(&out, "out", "data", "output data directory")
	cmd.Flags().IntVar(&instructors, "instructors", 200, "instructors in the snapshot")
	cmd.Flags().Int64Var(&seed, "seed", 1, "rand seed; equal seeds produce equal files")
	return cmd
}
