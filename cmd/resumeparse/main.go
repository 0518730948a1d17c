// Command resumeparse runs the extraction pipeline against a single file
// and prints the record as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/talentvault/talentvault-backend/internal/candidate/extraction"
	"github.com/talentvault/talentvault-backend/pkg/errors"
	"github.com/talentvault/talentvault-backend/pkg/logger"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUnsupported = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("resumeparse", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	file := fs.StringP("file", "f", "", "resume to parse (.pdf, .docx, .txt)")
	skills := fs.StringP("skills", "s", "./config/skills.txt", "skills vocabulary, one label per line")
	pretty := fs.Bool("pretty", false, "indent JSON output")
	cutoff := fs.Int("cutoff", extraction.DefaultScoreCutoff, "fuzzy match score cutoff (0-100)")
	limit := fs.Int("limit", extraction.DefaultLimit, "maximum fuzzy skill hits")
	noNER := fs.Bool("no-ner", false, "skip name and location recognition")
	verbose := fs.BoolP("verbose", "v", false, "log pipeline warnings to stderr")

	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	if *file == "" && fs.NArg() > 0 {
		*file = fs.Arg(0)
	}
	if *file == "" {
		fmt.Fprintln(stderr, "resumeparse: --file is required")
		fs.PrintDefaults()
		return exitFailure
	}

	level := zerolog.ErrorLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logger.NewWithWriter(zerolog.ConsoleWriter{Out: stderr, NoColor: true}, "resumeparse", level)

	var annotator extraction.Annotator = extraction.NopAnnotator{}
	if !*noNER {
		annotator = extraction.NewProseAnnotator()
	}

	extractor := extraction.New(annotator,
		extraction.WithMatchOptions(extraction.MatchOptions{ScoreCutoff: *cutoff, Limit: *limit}),
		extraction.WithLogger(log),
	)

	record, err := extractor.Extract(ctx, *file, *skills)
	if err != nil {
		fmt.Fprintf(stderr, "resumeparse: %v\n", err)
		if errors.Is(err, extraction.ErrUnsupportedFormat) {
			return exitUnsupported
		}
		return exitFailure
	}

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(record); err != nil {
		fmt.Fprintf(stderr, "resumeparse: %v\n", err)
		return exitFailure
	}
	return exitOK
}
