package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vic/lambdalab/internal/config"
	"github.com/vic/lambdalab/internal/observability"
	"github.com/vic/lambdalab/internal/workbench"
	"github.com/vic/lambdalab/pkg/generate"
	"github.com/vic/lambdalab/pkg/lambda"
	"github.com/vic/lambdalab/pkg/reduce"
)

type options struct {
	configPath string
	free       string
	strategy   string
	budget     int
	output     string
	file       string
	stats      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:          "lambdalab",
		Short:        "Explore reductions, reduction graphs and term families of the untyped lambda calculus",
		SilenceUsage: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file path (YAML)")
	pf.StringVar(&opts.free, "free", "", "Whitespace-separated free variable names, outermost first")
	pf.StringVar(&opts.strategy, "strategy", "", "Reduction strategy: outermost, innermost-leftmost, innermost-rightmost")
	pf.IntVar(&opts.budget, "budget", 0, "Maximum reduction steps (overrides reduction.budget)")
	pf.StringVarP(&opts.output, "output", "o", "text", "Output format: text, json, yaml")
	pf.StringVarP(&opts.file, "file", "f", "", "Read the term from a file instead of the arguments")
	pf.BoolVar(&opts.stats, "stats", false, "Print timing and counters to stderr")

	rootCmd.AddCommand(
		newNormalizeCmd(opts),
		newStepCmd(opts),
		newRedexesCmd(opts),
		newGraphCmd(opts),
		newAnalyzeCmd(opts),
		newGenerateCmd(opts),
	)
	return rootCmd
}

// app is the per-invocation state shared by every command.
type app struct {
	opts     *options
	session  *workbench.Session
	strategy reduce.Strategy
	out      io.Writer
	shutdown func(context.Context) error
}

func setup(cmd *cobra.Command, opts *options) (*app, error) {
	cfg := config.Default()
	if opts.configPath != "" || hasEnvConfig() {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.budget > 0 {
		cfg.Reduction.Budget = opts.budget
	}

	strategy := cfg.Strategy()
	if opts.strategy != "" {
		s, err := reduce.ParseStrategy(opts.strategy)
		if err != nil {
			return nil, err
		}
		strategy = s
	}
	if _, err := formatOf(opts.output); err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	tp, err := observability.InitTracing(cmd.Context(), &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: "0.1.0",
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	session := workbench.New(cfg,
		workbench.WithLogger(logger),
		workbench.WithTracer(tp.Tracer()),
		workbench.WithFree(strings.Fields(opts.free)...),
	)
	return &app{
		opts:     opts,
		session:  session,
		strategy: strategy,
		out:      cmd.OutOrStdout(),
		shutdown: tp.Shutdown,
	}, nil
}

func hasEnvConfig() bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "LAMBDALAB_") {
			return true
		}
	}
	return false
}

func (a *app) close(ctx context.Context) {
	if err := a.shutdown(ctx); err != nil {
		a.session.Logger.Warn("tracer shutdown failed", "error", err)
	}
}

// readTerm parses the term given as arguments, with --file, or on stdin.
func (a *app) readTerm(cmd *cobra.Command, args []string) (lambda.Term, *lambda.Context, error) {
	var input string
	switch {
	case a.opts.file != "":
		data, err := os.ReadFile(a.opts.file)
		if err != nil {
			return nil, nil, fmt.Errorf("reading file: %w", err)
		}
		input = string(data)
	case len(args) > 0:
		input = strings.Join(args, " ")
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, nil, fmt.Errorf("reading stdin: %w", err)
		}
		input = string(data)
	}
	term, ctx, err := a.session.Parse(strings.TrimSpace(input))
	if err != nil {
		return nil, nil, fmt.Errorf("parse error: %w", err)
	}
	return term, ctx, nil
}

func (a *app) printStats(cmd *cobra.Command, elapsed time.Duration) {
	if !a.opts.stats {
		return
	}
	w := cmd.ErrOrStderr()
	st := a.session.GetStats()
	fmt.Fprintf(w, "\nStats:\n")
	fmt.Fprintf(w, "Time: %v\n", elapsed)
	n := st.Normalizers[a.strategy.String()]
	fmt.Fprintf(w, "Reductions: %d", n.Reductions)
	if seconds := elapsed.Seconds(); seconds > 0 && n.Reductions > 0 {
		fmt.Fprintf(w, " (%.2f ops/sec)", float64(n.Reductions)/seconds)
	}
	fmt.Fprintf(w, "\n")
	if st.Bank.Keys > 0 {
		fmt.Fprintf(w, "Bank: %d keys, %d terms, %d hits, %d misses\n",
			st.Bank.Keys, st.Bank.Terms, st.Bank.Hits, st.Bank.Misses)
	}
}

// run wraps a command body with setup, timing and tracer shutdown.
func run(opts *options, body func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, opts)
		if err != nil {
			return err
		}
		defer a.close(context.Background())
		start := time.Now()
		if err := body(cmd, a, args); err != nil {
			return err
		}
		a.printStats(cmd, time.Since(start))
		return nil
	}
}

func newNormalizeCmd(opts *options) *cobra.Command {
	var trace int
	cmd := &cobra.Command{
		Use:   "normalize [term]",
		Short: "Reduce a term to normal form within the step budget",
		RunE: run(opts, func(cmd *cobra.Command, a *app, args []string) error {
			term, ctx, err := a.readTerm(cmd, args)
			if err != nil {
				return err
			}
			var res reduce.Result
			if trace > 0 {
				res, err = a.session.Trace(cmd.Context(), term, a.strategy, trace)
			} else {
				res, err = a.session.Normalize(cmd.Context(), term, a.strategy)
			}
			if err != nil {
				return err
			}
			return a.render(normalizeView(res, ctx, a.strategy))
		}),
	}
	cmd.Flags().IntVar(&trace, "trace", 0, "Print the first N reduction steps")
	return cmd
}

func newStepCmd(opts *options) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "step [term]",
		Short: "Perform one reduction step, by strategy or by redex index",
		RunE: run(opts, func(cmd *cobra.Command, a *app, args []string) error {
			term, ctx, err := a.readTerm(cmd, args)
			if err != nil {
				return err
			}
			if index >= 0 {
				next, err := a.session.ReduceAt(cmd.Context(), term, index)
				if err != nil {
					return err
				}
				return a.render(stepView(next, true, ctx))
			}
			next, ok, err := a.session.Step(cmd.Context(), term, a.strategy)
			if err != nil {
				return err
			}
			return a.render(stepView(next, ok, ctx))
		}),
	}
	cmd.Flags().IntVar(&index, "index", -1, "Contract the redex with this pre-order index instead of using the strategy")
	return cmd
}

func newRedexesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "redexes [term]",
		Short: "List the redexes of a term in pre-order",
		RunE: run(opts, func(cmd *cobra.Command, a *app, args []string) error {
			term, ctx, err := a.readTerm(cmd, args)
			if err != nil {
				return err
			}
			redexes, err := a.session.Redexes(cmd.Context(), term)
			if err != nil {
				return err
			}
			return a.render(redexesView(term, redexes, ctx))
		}),
	}
}

func newGraphCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "graph [term]",
		Short: "Build the reduction graph of a term and summarise its paths to normal form",
		RunE: run(opts, func(cmd *cobra.Command, a *app, args []string) error {
			term, ctx, err := a.readTerm(cmd, args)
			if err != nil {
				return err
			}
			g, stats, err := a.session.Graph(cmd.Context(), term)
			if err != nil {
				return err
			}
			return a.render(graphView(g, stats, ctx))
		}),
	}
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [term]",
		Short: "Print the structural metrics of a term",
		RunE: run(opts, func(cmd *cobra.Command, a *app, args []string) error {
			term, ctx, err := a.readTerm(cmd, args)
			if err != nil {
				return err
			}
			p, err := a.session.Analyze(cmd.Context(), term, ctx)
			if err != nil {
				return err
			}
			return a.render(profileView{Profile: p, Named: lambda.Named(term, ctx)})
		}),
	}
}

func newGenerateCmd(opts *options) *cobra.Command {
	var (
		size     int
		free     int
		fragment string
		filters  []string
		upTo     bool
		count    bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Enumerate the pure, linear or planar terms of a given size",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			f, err := generate.ParseFragment(fragment)
			if err != nil {
				return err
			}
			var fs []generate.Filter
			for _, name := range filters {
				filter, err := generate.ParseFilter(name)
				if err != nil {
					return err
				}
				fs = append(fs, filter)
			}
			ctx := freeContext(free)

			var sizes [][]lambda.Term
			if upTo {
				sizes, err = a.session.GenerateUpTo(cmd.Context(), size, free, f, fs...)
			} else {
				var terms []lambda.Term
				terms, err = a.session.Generate(cmd.Context(), size, free, f, fs...)
				sizes = [][]lambda.Term{terms}
			}
			if err != nil {
				return err
			}
			first := size
			if upTo {
				first = 0
			}
			return a.render(generateView(sizes, first, free, f, ctx, count))
		}),
	}
	cmd.Flags().IntVarP(&size, "size", "n", 3, "Term size: number of abstractions and applications")
	cmd.Flags().IntVarP(&free, "free-count", "k", 0, "Number of free variables available")
	cmd.Flags().StringVar(&fragment, "fragment", "pure", "Fragment: pure, linear, planar")
	cmd.Flags().StringSliceVar(&filters, "filter", nil, "Keep only terms passing these filters: "+strings.Join(generate.FilterNames, ", "))
	cmd.Flags().BoolVar(&upTo, "up-to", false, "Enumerate every size from 0 to --size")
	cmd.Flags().BoolVar(&count, "count", false, "Print only the number of terms")
	return cmd
}

// freeContext names k free variables a, b, c, ... with a outermost.
func freeContext(k int) *lambda.Context {
	names := make([]string, k)
	for i := range names {
		if i < 26 {
			names[i] = string(rune('a' + i))
		} else {
			names[i] = fmt.Sprintf("v%d", i)
		}
	}
	return lambda.NewContext(names...)
}
