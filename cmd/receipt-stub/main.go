package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/telebirr-verify/internal/stub"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	fs := ff.NewFlagSet("receipt-stub")
	var (
		addr      = fs.StringLong("addr", ":8081", "listen address")
		slowDelay = fs.DurationLong("slow-delay", time.Minute, "response delay for the slow scenario id")
		amount    = fs.StringLong("amount", "1,234.50", "settled amount printed on receipts")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("RECEIPT_STUB")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log.Info().Str("addr", *addr).
		Strs("scenarios", []string{stub.TxMissing, stub.TxEmpty, stub.TxPartial, stub.TxBroken, stub.TxSlow}).
		Msg("receipt-stub listening")
	srv := &http.Server{
		Addr:              *addr,
		Handler:           stub.Handler(stub.Options{SlowDelay: *slowDelay, Amount: *amount}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}
