// Command calc is a terminal keypad for the calculator engine. Keys come
// from the arguments or, when there are none, from stdin one line at a
// time; the display is printed after each line.
//
//	calc 12+3=
//	echo "4 + 1 = =" | calc -trace
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go-calculator/internal/config"
	"go-calculator/internal/engine"
	"go-calculator/internal/keypad"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "calc: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one invocation. Flags default to the values in cfg.
func run(cfg config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("calc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		trace     = fs.Bool("trace", false, "Print the display after every key")
		maxDigits = fs.Int("max-digits", cfg.MaxDigits, "Maximum digits per operand (0 = unbounded, default from CALC_MAX_DIGITS)")
		showKeys  = fs.Bool("keys", false, "List the keypad and exit")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showKeys {
		printKeypad(stdout)
		return 0
	}

	e := engine.New(engine.WithMaxDigits(*maxDigits))

	if fs.NArg() > 0 {
		return feed(e, strings.Join(fs.Args(), " "), *trace, stdout, stderr)
	}

	status := 0
	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		if code := feed(e, sc.Text(), *trace, stdout, stderr); code != 0 {
			status = code
		}
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(stderr, "calc: read input: %v\n", err)
		return 1
	}
	return status
}

// feed presses every key on line. A line with an unknown key is rejected
// as a whole and leaves the engine untouched.
func feed(e *engine.Engine, line string, trace bool, stdout, stderr io.Writer) int {
	buttons, err := keypad.ParseSequence(line)
	if err != nil {
		fmt.Fprintf(stderr, "calc: %v\n", err)
		return 1
	}
	if len(buttons) == 0 {
		return 0
	}

	for _, b := range buttons {
		display := e.Press(b)
		if trace {
			title := b.String()
			if k, ok := keypad.ForButton(b); ok {
				title = k.Title
			}
			fmt.Fprintf(stdout, "%-4s %s\n", title, display)
		}
	}
	if !trace {
		fmt.Fprintln(stdout, e.DisplayText())
	}
	return 0
}

func printKeypad(w io.Writer) {
	const columns = 4

	col := 0
	for _, k := range keypad.Layout() {
		fmt.Fprintf(w, "[%3s]", k.Title)
		col++
		if k.Wide {
			fmt.Fprint(w, "     ")
			col++
		}
		if col >= columns {
			fmt.Fprintln(w)
			col = 0
		}
	}
	if col != 0 {
		fmt.Fprintln(w)
	}
}
