package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talentmatch/internal/matching"
	"github.com/spigell/talentmatch/internal/ranking"
)

const (
	PromptShowResults = "Show results"
	PromptDetails     = "Show match details"
	PromptScreen      = "Screen a result"
	PromptDumpToFile  = "Dump results to file"
	PromptExit        = "Exit"
	PromptBack        = "back"
)

var (
	errExit     = errors.New("exit requested")
	errNoTarget = errors.New("either --candidate or --job is required")
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank open jobs for a candidate or candidates for a job",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringP("tenant", "t", "", "tenant id")
	rankCmd.Flags().StringP("candidate", "c", "", "rank open jobs for this candidate id")
	rankCmd.Flags().String("job", "", "rank candidates for this job id")
	rankCmd.Flags().IntP("limit", "l", 10, "maximum number of results")
	rankCmd.Flags().Int("min-score", 0, "drop results below this match score")
	rankCmd.Flags().StringSlice("exclude", nil, "ids to leave out of the ranking")
	rankCmd.Flags().BoolP("yes", "y", false, "print the ranking as json and exit without prompting")

	rankCmd.MarkFlagRequired("tenant")
}

// rankTarget says which side of the pair is fixed.
type rankTarget struct {
	tenant      string
	candidateID string
	jobID       string
}

func (t rankTarget) forCandidate() bool {
	return t.candidateID != ""
}

func targetFromFlags(cmd *cobra.Command) (rankTarget, error) {
	t := rankTarget{
		tenant:      strings.TrimSpace(cmd.Flag("tenant").Value.String()),
		candidateID: strings.TrimSpace(cmd.Flag("candidate").Value.String()),
		jobID:       strings.TrimSpace(cmd.Flag("job").Value.String()),
	}
	if t.tenant == "" {
		return t, errors.New("--tenant is required")
	}
	if (t.candidateID == "") == (t.jobID == "") {
		return t, errNoTarget
	}
	return t, nil
}

func rank(cmd *cobra.Command) {
	l := newLogger()
	defer l.Sync() //nolint:errcheck

	target, err := targetFromFlags(cmd)
	if err != nil {
		l.Fatal("invalid arguments", zap.Error(err))
	}

	config := mustConfig(l)
	ctx := context.Background()

	limit, _ := cmd.Flags().GetInt("limit")
	minScore, _ := cmd.Flags().GetInt("min-score")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	autoApprove, _ := cmd.Flags().GetBool("yes")

	c, err := buildComponents(ctx, config, l)
	if err != nil {
		l.Fatal("building components", zap.Error(err))
	}
	defer c.Close(l)

	opts := ranking.Options{Limit: limit, MinScore: minScore, ExcludeIDs: exclude, IncludeReasons: true}

	var result *ranking.Ranking
	if target.forCandidate() {
		result, err = c.service.RankJobs(ctx, target.tenant, target.candidateID, opts)
	} else {
		result, err = c.service.RankCandidates(ctx, target.tenant, target.jobID, opts)
	}
	if err != nil {
		c.Fail(l, "ranking failed", err)
	}

	l.Info("ranking finished", zap.Int("total", result.Total), zap.Int("shown", len(result.Results)))

	if autoApprove {
		if err := printJSON(result); err != nil {
			l.Error("printing ranking", zap.Error(err))
		}
		return
	}

	if len(result.Results) == 0 {
		l.Info("exiting", zap.String("reason", "nothing to rank"))
		return
	}

	items := []string{PromptShowResults, PromptDetails}
	if c.service.ScreeningEnabled() {
		items = append(items, PromptScreen)
	}
	items = append(items, PromptDumpToFile, PromptExit)

	prompt := promptui.Select{
		Label: "What next?",
		Items: items,
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			l.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(ctx, action, c.service, l, target, result); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			l.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, service *ranking.Service, l *zap.Logger, target rankTarget, result *ranking.Ranking) error {
	switch action {
	case PromptShowResults:
		for _, line := range resultLines(result, target) {
			fmt.Println(line)
		}
		return nil
	case PromptDetails:
		res, err := chooseResult(result, target)
		if err != nil || res == nil {
			return err
		}
		return printJSON(res)
	case PromptScreen:
		res, err := chooseResult(result, target)
		if err != nil || res == nil {
			return err
		}
		screening, err := service.Screen(ctx, target.tenant, res.CandidateID, res.JobID)
		if err != nil {
			return err
		}
		return printJSON(screening)
	case PromptDumpToFile:
		filename, err := dumpToTmpFile(result)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		l.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		l.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// chooseResult returns nil when the user goes back.
func chooseResult(result *ranking.Ranking, target rankTarget) (*matching.MatchResult, error) {
	lines := resultLines(result, target)

	selectPrompt := promptui.Select{
		Label: "Choose a result and press ENTER",
		Items: append(lines, PromptBack),
		Size:  10,
	}

	idx, _, err := selectPrompt.Run()
	if err != nil {
		return nil, err
	}
	if idx >= len(result.Results) {
		return nil, nil
	}
	return &result.Results[idx], nil
}

func resultLines(result *ranking.Ranking, target rankTarget) []string {
	lines := make([]string, 0, len(result.Results))
	for i, res := range result.Results {
		id := res.JobID
		if !target.forCandidate() {
			id = res.CandidateID
		}
		lines = append(lines, fmt.Sprintf("%2d. %s  score %d (semantic %d, skills %d, experience %d)  %s",
			i+1, id, res.MatchScore, res.SemanticScore, res.SkillsMatch.Score, res.ExperienceMatch.Score, res.OverallAssessment,
		))
	}
	return lines
}

func dumpToTmpFile(result *ranking.Ranking) (string, error) {
	f, err := os.CreateTemp("", app+"-ranking-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return "", err
	}
	return f.Name(), nil
}
