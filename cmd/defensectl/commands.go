package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/defense-scheduler/internal/scheduler"
)

// problemFile is the on-disk problem format.
type problemFile struct {
	Projects    []scheduler.Project    `json:"projects"`
	Instructors []scheduler.Instructor `json:"instructors"`
	Classrooms  []scheduler.Classroom  `json:"classrooms"`
	Timeslots   []scheduler.Timeslot   `json:"timeslots"`
}

type optimizeFlags struct {
	problem    string
	out        string
	format     string
	algorithm  string
	iterations int
	restarts   int
	workers    int
	seed       int64
	duration   time.Duration
	stall      int
}

func newRootCommand(logr *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "defensectl",
		Short:         "Defense schedule optimizer",
		Long:          "Builds defense schedules from a JSON problem file and scores existing schedules.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newOptimizeCommand(logr), newScoreCommand())
	return root
}

func newOptimizeCommand(logr *zap.Logger) *cobra.Command {
	defaults := scheduler.DefaultOptions()
	flags := optimizeFlags{
		format:     "csv",
		algorithm:  string(defaults.Algorithm),
		iterations: defaults.Iterations,
		restarts:   defaults.Restarts,
		workers:    defaults.Workers,
		seed:       defaults.Seed,
	}

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "generate and optimize a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd.Context(), cmd.OutOrStdout(), logr, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.problem, "problem", "p", "", "problem JSON file")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "schedule", "output file prefix (.csv or .json is appended)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", flags.format, "output format: csv or json")
	cmd.Flags().StringVarP(&flags.algorithm, "algorithm", "a", flags.algorithm, "population, temperature, memory or portfolio")
	cmd.Flags().IntVarP(&flags.iterations, "iterations", "n", flags.iterations, "iterations per run")
	cmd.Flags().IntVar(&flags.restarts, "restarts", flags.restarts, "independent runs per strategy")
	cmd.Flags().IntVar(&flags.workers, "workers", flags.workers, "number of concurrent runs")
	cmd.Flags().Int64Var(&flags.seed, "seed", flags.seed, "random seed")
	cmd.Flags().DurationVarP(&flags.duration, "time", "t", 0, "wall-clock limit per run (0 for none)")
	cmd.Flags().IntVar(&flags.stall, "stall", 0, "stop a run after this many iterations without improvement (0 for never)")
	_ = cmd.MarkFlagRequired("problem")
	return cmd
}

func newScoreCommand() *cobra.Command {
	var problemPath, schedulePath string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "score and display an existing schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			problem, err := loadProblem(problemPath)
			if err != nil {
				return err
			}
			schedule, err := loadSchedule(problem, schedulePath)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), scheduler.NewEvaluator(scheduler.DefaultWeights()).Score(schedule), scheduler.Summarize(schedule), nil)
			for _, c := range scheduler.Detect(schedule) {
				resource := c.InstructorID
				if c.Kind == scheduler.ConflictClassroom {
					resource = c.ClassroomID
				}
				fmt.Fprintf(cmd.OutOrStdout(), "conflict: %s %s at %s (%d assignments)\n", c.Kind, resource, c.TimeslotID, len(c.Positions))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&problemPath, "problem", "p", "", "problem JSON file")
	cmd.Flags().StringVarP(&schedulePath, "schedule", "s", "", "schedule file (.csv or .json)")
	_ = cmd.MarkFlagRequired("problem")
	_ = cmd.MarkFlagRequired("schedule")
	return cmd
}

func runOptimize(ctx context.Context, w io.Writer, logr *zap.Logger, flags optimizeFlags) error {
	if flags.format != "csv" && flags.format != "json" {
		return fmt.Errorf("unknown format %q", flags.format)
	}
	problem, err := loadProblem(flags.problem)
	if err != nil {
		return err
	}

	kind, err := scheduler.ParseKind(flags.algorithm)
	if err != nil {
		return err
	}

	opts := scheduler.DefaultOptions()
	opts.Algorithm = kind
	opts.Iterations = flags.iterations
	opts.Restarts = flags.restarts
	opts.Workers = flags.workers
	opts.Seed = flags.seed
	opts.MaxDuration = flags.duration
	opts.StallLimit = flags.stall

	outcome, err := scheduler.Optimize(ctx, problem, opts, logr)
	if err != nil {
		return err
	}

	var data []byte
	if flags.format == "json" {
		data, err = scheduler.EncodeJSON(outcome.Schedule)
	} else {
		data, err = scheduler.EncodeCSV(outcome.Schedule)
	}
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	path := flags.out + "." + flags.format
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printReport(w, outcome.Breakdown, outcome.Summary, outcome.Notes)
	fmt.Fprintf(w, "algorithm: %s, iterations: %d, elapsed: %s\n", outcome.Algorithm, outcome.Iterations, outcome.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "wrote %s\n", path)
	return nil
}

func loadProblem(path string) (*scheduler.Problem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read problem: %w", err)
	}
	var file problemFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse problem %s: %w", path, err)
	}
	return scheduler.NewProblem(file.Projects, file.Instructors, file.Classrooms, file.Timeslots)
}

func loadSchedule(problem *scheduler.Problem, path string) (*scheduler.Schedule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return scheduler.DecodeJSON(problem, raw)
	}
	return scheduler.DecodeCSV(problem, raw)
}

func printReport(w io.Writer, breakdown scheduler.Breakdown, summary scheduler.Summary, notes []string) {
	fmt.Fprintf(w, "score: %.3f\n", breakdown.Total)
	for _, c := range scheduler.Components {
		fmt.Fprintf(w, "  %-17s raw %9.3f  weighted %10.3f\n", c, breakdown.Raw[c], breakdown.Weighted[c])
	}
	fmt.Fprintf(w, "coverage: %.1f%%, conflicts: %d, consecutive: %.1f%%, room switches: %d, gaps: %d\n",
		summary.CoveragePercent, summary.Conflicts, summary.ConsecutivePct, summary.ClassroomSwitches, summary.Gaps)
	for _, note := range notes {
		fmt.Fprintf(w, "note: %s\n", note)
	}
}
