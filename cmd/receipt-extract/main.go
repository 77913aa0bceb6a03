// Command receipt-extract runs the extraction engine over OCR text from a
// file or stdin and prints the receipt and its invoice lines as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/snap2invoice/internal/extraction"
)

type output struct {
	Receipt      extraction.Receipt           `json:"receipt"`
	InvoiceItems []extraction.InvoiceLineItem `json:"invoiceItems"`
	Confidence   int                          `json:"confidence"`
	Plausible    bool                         `json:"plausible"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := ff.NewFlagSet("receipt-extract")
	var (
		pretty = fs.BoolLong("pretty", "Indent the JSON output")
		trace  = fs.BoolLong("trace", "Log extraction decisions to stderr")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("RECEIPT_EXTRACT")); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs, "receipt-extract [FLAGS] [FILE]"))
		return err
	}

	input := stdin
	if rest := fs.GetArgs(); len(rest) > 0 && rest[0] != "-" {
		f, err := os.Open(rest[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		input = f
	}

	text, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var opts []extraction.Option
	if *trace {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, extraction.WithTrace(extraction.SlogTrace(logger)))
	}

	r := extraction.New(opts...).Extract(string(text))

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(output{
		Receipt:      r,
		InvoiceItems: extraction.InvoiceItems(r),
		Confidence:   r.OverallConfidence(),
		Plausible:    r.Plausible(),
	})
}
