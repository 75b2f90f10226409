package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/coregx/regvm"
)

const (
	historyFile = ".regvm_history"
	prompt      = "regvm> "
	helpText    = "type a text to search it; :e PATTERN switches pattern; :quit exits"
)

// interactive reads texts one per line. On a terminal it uses liner for
// line editing and history; otherwise lines are read plainly so the mode
// can be scripted.
func (d *driver) interactive(stdin io.Reader) int {
	if f, ok := stdin.(*os.File); ok && isTerminal(int(f.Fd())) {
		return d.lineEditor()
	}

	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		if !d.handle(sc.Text()) {
			return 0
		}
	}
	if err := sc.Err(); err != nil {
		d.log.WithError(err).Error("reading input")
		return 2
	}
	return 0
}

func (d *driver) lineEditor() int {
	fmt.Fprintln(d.out, helpText)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(d.out)
			return 0
		}
		if err != nil {
			d.log.WithError(err).Error("reading input")
			return 2
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if !d.handle(line) {
			return 0
		}
	}
}

// handle processes one input line and reports whether to keep going.
func (d *driver) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == ":quit" || trimmed == ":q":
		return false
	case trimmed == ":help":
		fmt.Fprintln(d.out, helpText)
	case strings.HasPrefix(trimmed, ":e "):
		pattern := strings.TrimSpace(strings.TrimPrefix(trimmed, ":e "))
		re, err := regvm.CompileWithConfig(pattern, d.config)
		if err != nil {
			fmt.Fprintln(d.out, "Error:", err)
			return true
		}
		d.re = re
		fmt.Fprintln(d.out, "Pattern:", pattern)
		d.log.WithField("pattern", pattern).WithField("strategy", re.Strategy()).Debug("compiled")
	case strings.HasPrefix(trimmed, ":"):
		fmt.Fprintf(d.out, "unknown command %s. Type :help for help.\n", trimmed)
	default:
		d.report(line)
	}
	return true
}
