package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talentmatch/internal/matching"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score a candidate file against a job file",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("candidate-file", "c", "", "json file with the candidate profile")
	matchCmd.Flags().StringP("job-file", "J", "", "json file with the job posting")
	matchCmd.Flags().Bool("reasons", true, "include human readable match reasons")

	matchCmd.MarkFlagRequired("candidate-file")
	matchCmd.MarkFlagRequired("job-file")
}

func match(cmd *cobra.Command) {
	l := newLogger()
	defer l.Sync() //nolint:errcheck

	config := mustConfig(l)
	ctx := context.Background()

	var candidate matching.CandidateInput
	if err := readJSONFile(cmd.Flag("candidate-file").Value.String(), &candidate); err != nil {
		l.Fatal("reading candidate", zap.Error(err))
	}

	var job matching.JobInput
	if err := readJSONFile(cmd.Flag("job-file").Value.String(), &job); err != nil {
		l.Fatal("reading job", zap.Error(err))
	}

	reasons, _ := cmd.Flags().GetBool("reasons")

	c, err := buildComponents(ctx, config, l)
	if err != nil {
		l.Fatal("building components", zap.Error(err))
	}
	defer c.Close(l)

	result, err := c.service.MatchInline(ctx, candidate, job, reasons)
	if err != nil {
		c.Fail(l, "matching failed", err)
	}

	if err := printJSON(result); err != nil {
		l.Error("printing result", zap.Error(err))
	}
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func printJSON(v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(pretty))
	return err
}
