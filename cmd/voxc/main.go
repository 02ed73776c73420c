/*
Voxc starts an interactive voxgraph recognition session.

It compiles a grammar file into a recognizer and then reads sentences from
stdin, printing the recognized intent, confidence, and any extracted entities
for each. The session runs until the "QUIT" command is entered or stdin is
exhausted.

Usage:

	voxc [flags]

The flags are:

	-v, --version
		Give the current version of voxgraph and then exit.

	-g, --grammar FILE
		Use the provided grammar file. Defaults to "grammar.txt" in the
		current working directory.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading input even if launched in a tty.

	-o, --once TEXT
		Recognize the given sentence immediately, print the result, and
		exit without starting an interactive session.

	--fuzzy
		Use fuzzy (uniform-cost) recognition instead of strict matching.

	--weighted
		Balance intent weights during grammar compilation.

	--casing MODE
		Transform tokens with MODE ("lower", "upper", or "title", using
		golang.org/x/text/cases for locale-aware casing) before matching.

	--export FORMAT[:FILE]
		Export the compiled graph as FORMAT ("json" or "fst") to FILE (or
		stdout if FILE is omitted), then exit without starting a session.

	--cache FILE
		Cache the compiled graph at FILE. If FILE already holds a cache at
		least as new as the grammar file, it is decoded instead of
		recompiling; otherwise the grammar is compiled normally and FILE is
		(re)written.

Once a session has started, each line is recognized against the grammar. The
top candidate's intent, confidence, and entities are printed. To exit, type
"QUIT".
*/
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/spf13/pflag"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dekarrin/voxgraph"
	"github.com/dekarrin/voxgraph/internal/fstio"
	"github.com/dekarrin/voxgraph/internal/input"
	"github.com/dekarrin/voxgraph/internal/recognize"
	"github.com/dekarrin/voxgraph/internal/version"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitRecognizeError indicates an unsuccessful program execution due to a
	// problem during a recognition session.
	ExitRecognizeError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue compiling the grammar.
	ExitInitError
)

const outputWidth = 80

var (
	returnCode  = ExitSuccess
	flagVersion = pflag.BoolP("version", "v", false, "Gives the version info")
	grammarFile = pflag.StringP("grammar", "g", "grammar.txt", "The grammar file to compile and recognize against")
	forceDirect = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
	onceText    = pflag.StringP("once", "o", "", "Recognize the given sentence immediately and exit")
	fuzzy       = pflag.Bool("fuzzy", false, "Use fuzzy recognition instead of strict matching")
	weighted    = pflag.Bool("weighted", false, "Balance intent weights during compilation")
	casingMode  = pflag.String("casing", "", "Transform tokens with this casing before matching: lower, upper, or title")
	exportSpec  = pflag.String("export", "", "Export the compiled graph as FORMAT[:FILE] then exit")
	cacheFile   = pflag.String("cache", "", "Cache the compiled graph at this path; reused on later runs if the grammar file hasn't changed since")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	engine, err := loadEngine(*grammarFile, *cacheFile, voxgraph.Options{Weighted: *weighted})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	wordTransform, err := casingTransform(*casingMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	if *exportSpec != "" {
		if err := runExport(engine, *exportSpec); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
		}
		return
	}

	opts := recognize.Options{
		Fuzzy:        *fuzzy,
		MatchOptions: recognize.MatchOptions{WordTransform: wordTransform},
	}

	if *onceText != "" {
		if err := recognizeAndPrint(os.Stdout, engine, *onceText, opts); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitRecognizeError
		}
		return
	}

	if err := runSession(engine, opts); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitRecognizeError
	}
}

// loadEngine compiles grammarFile, reusing a cached graph at cacheFile (and
// refreshing it on a miss) when cacheFile is set, or compiling fresh every
// time when it isn't.
func loadEngine(grammarFile, cacheFile string, opts voxgraph.Options) (*voxgraph.Engine, error) {
	if cacheFile != "" {
		return voxgraph.LoadCached(grammarFile, cacheFile, opts)
	}

	f, err := os.Open(grammarFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return voxgraph.Load(f, opts)
}

func casingTransform(mode string) (func(string) string, error) {
	switch strings.ToLower(mode) {
	case "":
		return nil, nil
	case "lower":
		c := cases.Lower(language.Und)
		return c.String, nil
	case "upper":
		c := cases.Upper(language.Und)
		return c.String, nil
	case "title":
		c := cases.Title(language.Und)
		return c.String, nil
	default:
		return nil, fmt.Errorf("unknown casing mode %q; must be lower, upper, or title", mode)
	}
}

func runExport(engine *voxgraph.Engine, spec string) error {
	parts := strings.SplitN(spec, ":", 2)
	format := strings.ToLower(parts[0])
	var out io.Writer = os.Stdout
	if len(parts) == 2 {
		f, err := os.Create(parts[1])
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch format {
	case "json":
		data, err := engine.ToJSON()
		if err != nil {
			return fmt.Errorf("export graph JSON: %w", err)
		}
		_, err = out.Write(data)
		return err
	case "fst":
		results, err := engine.ExportFST(fstio.Options{})
		if err != nil {
			return fmt.Errorf("export FST: %w", err)
		}
		for _, intentName := range engine.Intents() {
			res, ok := results[intentName]
			if !ok {
				continue
			}
			fmt.Fprintf(out, "# %s\n%s\n", intentName, res.Text)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q; must be json or fst", format)
	}
}

func runSession(engine *voxgraph.Engine, opts recognize.Options) error {
	useReadline := !*forceDirect
	var reader interface {
		ReadCommand() (string, error)
		AllowBlank(bool)
		Close() error
	}

	if useReadline {
		icr, err := input.NewInteractiveReader()
		if err != nil {
			return fmt.Errorf("initializing interactive-mode input reader: %w", err)
		}
		reader = icr
	} else {
		reader = input.NewDirectReader(os.Stdin)
	}
	defer reader.Close()

	intro := "voxgraph recognizer\n"
	if *forceDirect {
		intro += "(direct input mode)\n"
	}
	intro += fmt.Sprintf("===========================\n%d intents loaded. Type QUIT to exit.\n", len(engine.Intents()))
	fmt.Print(intro)

	for {
		line, err := reader.ReadCommand()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read input: %w", err)
		}

		if strings.EqualFold(strings.TrimSpace(line), "QUIT") {
			break
		}

		if err := recognizeAndPrint(os.Stdout, engine, line, opts); err != nil {
			msg := rosed.Edit(err.Error()).Wrap(outputWidth).String()
			fmt.Fprintln(os.Stderr, msg)
		}
	}

	fmt.Println("Goodbye")
	return nil
}

func recognizeAndPrint(w io.Writer, engine *voxgraph.Engine, text string, opts recognize.Options) error {
	results, err := engine.Recognize(text, opts)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(w, rosed.Edit("no intent recognized").Wrap(outputWidth).String())
		return nil
	}

	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "%s (confidence %.2f): %q\n", r.Intent.Name, r.Intent.Confidence, r.Text)
		for _, ent := range r.Entities {
			fmt.Fprintf(&b, "  %s = %q (raw %q)\n", ent.Name, ent.Value, ent.RawValue)
		}
	}

	fmt.Fprint(w, rosed.Edit(b.String()).Wrap(outputWidth).String())
	return nil
}
