package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/telebirr-verify/internal/app"
	"github.com/hyperifyio/telebirr-verify/internal/failure"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	fs := ff.NewFlagSet("receiptcheck")
	build := app.BindFlags(fs)
	var (
		htmlPath    = fs.StringLong("html", "", "parse a saved receipt page instead of fetching (requires --tx)")
		tx          = fs.StringLong("tx", "", "transaction id for --html")
		concurrency = fs.IntLong("concurrency", 4, "parallel verifications in batch mode")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix(app.EnvPrefix)); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	cfg, err := build()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var results []app.Result
	if *htmlPath != "" {
		results, err = parseFile(cfg, *htmlPath, *tx)
	} else {
		results, err = verify(ctx, cfg, fs.GetArgs(), *concurrency)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("receiptcheck failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		log.Fatal().Err(err).Msg("write results")
	}
	for _, r := range results {
		if r.Err != nil {
			os.Exit(1)
		}
	}
}

// parseFile runs the offline pipeline on a saved page.
func parseFile(cfg app.Config, path, tx string) ([]app.Result, error) {
	if tx == "" {
		return nil, errors.New("--tx is required with --html")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, noFetch{})
	if err != nil {
		return nil, err
	}
	res := app.Result{TX: tx}
	r, err := a.Parse(string(b), tx)
	if err != nil {
		res.Err = failure.As(err)
	} else {
		res.Receipt = &r
	}
	return []app.Result{res}, nil
}

// verify fetches every id given as an argument, or read one per line from
// stdin when the only argument is "-".
func verify(ctx context.Context, cfg app.Config, args []string, concurrency int) ([]app.Result, error) {
	if len(args) == 1 && args[0] == "-" {
		var err error
		if args, err = readIDs(os.Stdin); err != nil {
			return nil, err
		}
	}
	if len(args) == 0 {
		return nil, errors.New("no transaction ids given")
	}
	a, err := app.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.ReceiptsByTx(ctx, args, concurrency), nil
}

func readIDs(r io.Reader) ([]string, error) {
	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" && !strings.HasPrefix(s, "#") {
			ids = append(ids, s)
		}
	}
	return ids, sc.Err()
}
