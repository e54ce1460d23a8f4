// Command bflow решает задачу min-cost flow в текстовом формате b-flow
// или задачу назначения и печатает ответ в stdout.
//
// Формат b-flow: "n m", n балансов, затем m строк "s t lower upper cost".
// Формат назначения: n, затем матрица n×n стоимостей.
//
//	bflow -input problem.txt -rule batched
//	bflow -format assignment < costs.txt
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"netsimplex/pkg/apperror"
	"netsimplex/pkg/logger"
	"netsimplex/services/solver-svc/internal/converter"
	"netsimplex/services/solver-svc/internal/simplex"
)

type options struct {
	input     string
	format    string
	rule      simplex.Rule
	maxPivots int
	verify    bool
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	in := stdin
	if opts.input != "" && opts.input != "-" {
		f, err := os.Open(opts.input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	sopts := simplex.DefaultOptions().WithRule(opts.rule).WithMaxPivots(opts.maxPivots)

	switch opts.format {
	case "bflow":
		return solveBFlow(in, stdout, sopts, opts.verify)
	case "assignment":
		return solveAssignment(in, stdout, sopts)
	default:
		return apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unknown format %q", opts.format), "format")
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("bflow", flag.ContinueOnError)
	fs.SetOutput(stderr)

	input := fs.String("input", "", "Input file (default: stdin)")
	format := fs.String("format", "bflow", "Input format: bflow, assignment")
	rule := fs.String("rule", string(simplex.DefaultRule), "Entering edge rule: block, batched")
	maxPivots := fs.Int("max-pivots", 0, "Pivot limit (0 for unlimited)")
	verify := fs.Bool("verify", false, "Check the optimality certificate before printing")
	logLevel := fs.String("log-level", "warn", "Log level for stderr diagnostics")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	logger.InitWithConfig(logger.Config{
		Level:  *logLevel,
		Format: "text",
		Writer: stderr,
	})

	r, err := simplex.ParseRule(*rule)
	if err != nil {
		return nil, err
	}
	if *maxPivots < 0 {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "max-pivots must not be negative", "max-pivots")
	}

	return &options{
		input:     *input,
		format:    *format,
		rule:      r,
		maxPivots: *maxPivots,
		verify:    *verify,
	}, nil
}

// cliLimits не ограничивает размер задачи, а стоимость печатается точно,
// даже если не помещается в int64
var cliLimits = converter.Limits{WideCost: true}

func solveBFlow(in io.Reader, out io.Writer, opts *simplex.Options, verify bool) error {
	p, err := converter.ParseBFlow(in, cliLimits)
	if err != nil {
		return err
	}
	if err := p.Validate(cliLimits); err != nil {
		return err
	}

	res, err := solve(p, opts)
	if err != nil {
		return err
	}

	if verify && res.Optimal() {
		if v := converter.VerifyResult(p, res); v.HasErrors() {
			for _, msg := range v.ErrorMessages() {
				logger.Error("Verification failed", "error", msg)
			}
			return v.First()
		}
	}

	return converter.WriteBFlowResult(out, res)
}

func solveAssignment(in io.Reader, out io.Writer, opts *simplex.Options) error {
	costs, err := converter.ParseAssignment(in, cliLimits)
	if err != nil {
		return err
	}

	p, err := converter.AssignmentProblem(costs)
	if err != nil {
		return err
	}
	if err := p.Validate(cliLimits); err != nil {
		return err
	}

	res, err := solve(p, opts)
	if err != nil {
		return err
	}
	if !res.Optimal() {
		return apperror.Newf(apperror.CodePivotLimit, "assignment not solved: status %s", res.Status)
	}

	jobs, err := converter.DecodeAssignment(len(costs), res.Flows)
	if err != nil {
		return err
	}
	return converter.WriteAssignment(out, res.TotalCost, jobs)
}

func solve(p *converter.Problem, opts *simplex.Options) (*converter.Result, error) {
	start := time.Now()
	res, err := converter.Solve(p, opts)
	if err != nil {
		return nil, err
	}

	logger.Info("Solve finished",
		"rule", res.Stats.Rule,
		"status", res.Status,
		"vertices", res.Stats.Vertices,
		"edges", res.Stats.Edges,
		"pivots", res.Stats.Pivots,
		"degenerate_pivots", res.Stats.DegeneratePivots,
		"duration", time.Since(start),
	)
	return res, nil
}
