package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/upb/lingflow/app"
	"golang.org/x/sync/semaphore"
)

var (
	batchOp          string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch [file|-]",
	Short: "Run one operation over every non-empty line of a file",
	Long: `Run translate, correct or prompt over every non-empty line of a file (stdin
when omitted or "-"). Results are printed in input order; failed lines are
reported on stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := batchOperation(batchOp)
		if err != nil {
			return err
		}
		if batchConcurrency < 1 {
			return fmt.Errorf("--concurrency must be at least 1")
		}

		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		lines, err := readLines(path, cmd.InOrStdin())
		if err != nil {
			return err
		}

		return withDependencies(cmd, func(deps *app.Dependencies) error {
			return runBatch(cmd.Context(), deps.Translation, op, lines, batchConcurrency, cmd.OutOrStdout(), cmd.ErrOrStderr())
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchOp, "op", "translate", "operation: translate, correct or prompt")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 4, "maximum concurrent requests")
}

func batchOperation(name string) (textOp, error) {
	switch name {
	case "translate":
		return translateOp, nil
	case "correct":
		return correctOp, nil
	case "prompt":
		return promptOp, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", name)
	}
}

type batchResult struct {
	text string
	err  error
}

// runBatch applies op to every line with at most n calls in flight
func runBatch(ctx context.Context, svc textService, op textOp, lines []string, n int, out, errOut io.Writer) error {
	sem := semaphore.NewWeighted(int64(n))
	results := make([]batchResult, len(lines))
	var wg sync.WaitGroup

	for i, line := range lines {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, line string) {
			defer wg.Done()
			defer sem.Release(1)
			text, err := op(ctx, svc, line)
			results[i] = batchResult{text: text, err: err}
		}(i, line)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	failed := 0
	for i, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(errOut, "line %d: %v\n", i+1, r.err)
			continue
		}
		fmt.Fprintln(out, r.text)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lines failed", failed, len(lines))
	}
	return nil
}

func readLines(path string, stdin io.Reader) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no input lines")
	}
	return lines, nil
}
