package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/JakeFAU/jobparser/internal/job"
)

type parseOptions struct {
	workers int
	pretty  bool
	strict  bool
	output  string
}

func newParseCmd() *cobra.Command {
	opts := parseOptions{}
	cmd := &cobra.Command{
		Use:   "parse URL [URL...]",
		Short: "Parse job posting URLs and print the results",
		Long: `Parses each URL through the extraction dispatcher. A single URL prints one
result object; several URLs print an array in input order. Failed parses are
reported in the output rather than as a command error unless --strict is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "parallel parses when several URLs are given")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit non-zero when any URL fails to parse")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func runParse(cmd *cobra.Command, urls []string, opts parseOptions) error {
	if opts.output != "json" && opts.output != "yaml" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	var payload any
	var results []job.ParseResult
	if len(urls) == 1 {
		res := appInstance.Dispatcher().ParseJobURL(cmd.Context(), urls[0])
		results = []job.ParseResult{res}
		payload = res
	} else {
		results = appInstance.Dispatcher().ParseAll(cmd.Context(), urls, opts.workers)
		payload = results
	}

	if err := writeResults(cmd.OutOrStdout(), payload, opts); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	failed := 0
	for _, res := range results {
		if !res.Successful {
			failed++
			appInstance.Logger().Debug("parse failed",
				zap.String("url", res.OriginalURL), zap.String("error", res.ErrorMessage))
		}
	}
	if opts.strict && failed > 0 {
		return fmt.Errorf("%d of %d urls failed to parse", failed, len(results))
	}
	return nil
}

func writeResults(w io.Writer, payload any, opts parseOptions) error {
	if opts.output == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(payload)
}
