// Command settle computes balances for a purchase from the command line.
//
// Items are read one per line as "name, price, owner1, owner2, ...":
//
//	$ printf 'Pizza, 30, a, b, c\nCoffee, 5, b\n' | settle -payer a
//	a	-25.00
//	b	15.00
//	c	10.00
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/wire"
	"github.com/mmynk/settleup/pkg/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("settle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	payer := fs.String("payer", "", "participant who paid for every item (required)")
	file := fs.String("file", "", "read items from this file instead of stdin")
	asJSON := fs.Bool("json", false, "print the balances as a JSON object")
	envelope := fs.String("envelope", "", `wrap JSON output; "reimbursements" or empty`)
	logLevel := fs.String("log-level", "warn", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := logging.New(stderr, *logLevel)

	env, err := wire.ParseEnvelope(*envelope)
	if err != nil {
		logger.Error("Invalid flag", "error", err)
		return 2
	}

	in := stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Error("Failed to open items file", "path", *file, "error", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	items, err := wire.ParseLines(in)
	if err != nil {
		logger.Error("Failed to parse items", "error", err)
		return 1
	}

	req := models.SettlementRequest{Payer: *payer, Items: items}
	logger.Debug("Computing settlement",
		"payer", req.Payer,
		"items_count", len(items),
		"total", calculator.Total(items).String(),
	)

	balances, err := calculator.ComputeSettlement(req)
	if err != nil {
		if calculator.IsDefect(err) {
			logger.Error("Balances do not settle; this is a bug", "error", err)
			return 3
		}
		logger.Error("Invalid purchase", "error", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(wire.BalancesBody(balances, env))
	} else {
		err = printBalances(stdout, balances)
	}
	if err != nil && !errors.Is(err, io.ErrClosedPipe) {
		logger.Error("Failed to write output", "error", err)
		return 1
	}
	return 0
}

func printBalances(w io.Writer, balances models.Balances) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, '\t', 0)
	for _, participant := range balances.Participants() {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", participant, balances[participant].StringFixed(2)); err != nil {
			return err
		}
	}
	return tw.Flush()
}
