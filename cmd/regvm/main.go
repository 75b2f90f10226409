// Command regvm compiles a pattern and searches candidate texts with it.
//
// Usage:
//
//	regvm [flags] [text ...]
//
// With no texts the built-in sample set is searched. -scan reads lines from
// stdin and prints the matching ones, like grep. -i starts an interactive
// prompt with line editing and history.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/coregx/regvm"
	"github.com/coregx/regvm/meta"
	"github.com/coregx/regvm/vm"
)

const (
	defaultPattern = `^(a(bra)?(cad)?)+$`
	separator      = "--------------------------------"
)

var sampleTexts = []string{"abracadabra", "abraabra", "abra", "cadcad"}

type options struct {
	pattern  string
	ast      bool
	prog     bool
	repl     bool
	scan     bool
	stats    bool
	verbose  bool
	maxSteps int
	texts    []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without the process exit, so it can be tested.
// Exit codes: 0 ok, 1 compile error or (with -scan) no matching line,
// 2 bad flags.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	log := newLogger(stderr, opts.verbose)

	config := regvm.DefaultConfig()
	config.MaxSteps = opts.maxSteps

	re, err := regvm.CompileWithConfig(opts.pattern, config)
	if err != nil {
		log.WithError(err).WithField("pattern", opts.pattern).Error("cannot compile pattern")
		return 1
	}
	log.WithFields(logrus.Fields{
		"pattern":  opts.pattern,
		"strategy": re.Strategy(),
		"reason":   re.StrategyReason(),
	}).Debug("compiled")

	d := &driver{re: re, config: config, log: log, out: stdout, stats: opts.stats}

	if opts.ast {
		fmt.Fprintln(stdout, "AST:", re.AST())
	}
	if opts.prog {
		fmt.Fprint(stdout, re.Program())
	}

	switch {
	case opts.scan:
		return d.scan(stdin)
	case opts.repl:
		return d.interactive(stdin)
	}

	texts := opts.texts
	if len(texts) == 0 {
		texts = sampleTexts
	}
	fmt.Fprintln(stdout, "Pattern:", opts.pattern)
	for _, text := range texts {
		fmt.Fprintln(stdout, separator)
		fmt.Fprintln(stdout, "Text:", text)
		d.report(text)
	}
	if opts.stats {
		d.printEngineStats()
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("regvm", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.pattern, "e", defaultPattern, "pattern to compile")
	fs.BoolVar(&opts.ast, "ast", false, "print the syntax tree")
	fs.BoolVar(&opts.prog, "prog", false, "print the compiled program")
	fs.BoolVar(&opts.repl, "i", false, "read texts interactively")
	fs.BoolVar(&opts.scan, "scan", false, "print stdin lines that match; exit 1 if none do")
	fs.BoolVar(&opts.stats, "stats", false, "report VM steps and engine counters")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	fs.IntVar(&opts.maxSteps, "max-steps", meta.DefaultConfig().MaxSteps, "VM step budget per search, 0 for none")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.texts = fs.Args()
	return opts, nil
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// driver searches texts with one compiled pattern and prints the results.
type driver struct {
	re     *regvm.Regex
	config meta.Config
	log    *logrus.Logger
	out    io.Writer
	stats  bool
}

// search runs one text, logging budget errors. A nil match means no match
// or an aborted search.
func (d *driver) search(text string) *meta.Match {
	m, err := d.re.Search(text)
	if err != nil {
		d.log.WithError(err).WithField("text", text).Warn("search aborted")
		return nil
	}
	d.log.WithFields(logrus.Fields{"text": text, "matched": m != nil}).Debug("searched")
	return m
}

// report prints the result line for text, and the VM work for the winning
// start offset when -stats is set.
func (d *driver) report(text string) {
	m := d.search(text)
	if m == nil {
		fmt.Fprintln(d.out, "Result: no match")
		return
	}
	fmt.Fprintln(d.out, "Result:", m.Format())

	if d.stats {
		bt := vm.NewBacktracker(d.re.Program(), vm.Config{
			MaxSteps:      d.config.MaxSteps,
			MaxStackDepth: d.config.MaxStackDepth,
		})
		_, st, err := bt.MatchAtStats([]rune(text), m.Start())
		if err != nil {
			d.log.WithError(err).WithField("text", text).Warn("stats run aborted")
			return
		}
		fmt.Fprintf(d.out, "Steps: %d, max stack: %d\n", st.Steps, st.MaxStack)
	}
}

func (d *driver) printEngineStats() {
	s := d.re.Stats()
	fmt.Fprintln(d.out, separator)
	fmt.Fprintf(d.out, "Strategy: %s (%s)\n", d.re.Strategy(), d.re.StrategyReason())
	if prefixes := d.re.Prefixes(); prefixes.Usable() {
		fmt.Fprintf(d.out, "Prefixes: %s (exact: %t, min length: %d)\n",
			prefixes, prefixes.IsExact(), prefixes.MinLen())
	}
	fmt.Fprintf(d.out, "Searches: %d, matches: %d, prefilter candidates: %d, prefilter abandoned: %d, limit exceeded: %d\n",
		s.Searches, s.Matches, s.PrefilterCandidates, s.PrefilterAbandoned, s.LimitExceeded)
}

// scan prints every line of r that matches, grep style.
func (d *driver) scan(r io.Reader) int {
	found := false
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if d.search(line) != nil {
			fmt.Fprintln(d.out, line)
			found = true
		}
	}
	if err := sc.Err(); err != nil {
		d.log.WithError(err).Error("reading input")
		return 2
	}
	if d.stats {
		d.printEngineStats()
	}
	if !found {
		return 1
	}
	return 0
}
