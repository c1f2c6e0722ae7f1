// Package main audits a ledger database: it re-derives every record address
// and trade id from stored fields and reports gaps or divergences.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"swap-ledger/internal/domain"
	"swap-ledger/internal/storage/postgres"
	"swap-ledger/internal/verification"
)

func main() {
	loadEnvFile()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	user := flag.String("user", "", "Verify only this user (base58 identity); empty verifies every user")
	verbose := flag.Bool("verbose", false, "Print per-record results for clean chains too")

	flag.Parse()

	logger := log.New(os.Stdout, "[verify] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Connect to postgres: %v", err)
	}
	defer pool.Close()

	verifier := verification.NewVerifier(
		postgres.NewUserStateStore(pool),
		postgres.NewTradeRecordStore(pool),
	)

	var reports []*verification.UserReport
	if *user != "" {
		id, err := domain.ParseIdentity(*user)
		if err != nil {
			logger.Fatalf("Parse user identity: %v", err)
		}
		report, err := verifier.VerifyUser(ctx, id)
		if err != nil {
			logger.Fatalf("Verify user %s: %v", id, err)
		}
		reports = append(reports, report)
	} else {
		reports, err = verifier.VerifyAll(ctx)
		if err != nil {
			logger.Fatalf("Verify all users: %v", err)
		}
	}

	dirty := 0
	for _, report := range reports {
		printReport(report, *verbose)
		if !report.Clean() {
			dirty++
		}
	}

	fmt.Printf("\nVerified %d user(s), %d with problems\n", len(reports), dirty)
	if dirty > 0 {
		os.Exit(1)
	}
}

func printReport(r *verification.UserReport, verbose bool) {
	status := "OK"
	if !r.Clean() {
		status = "FAIL"
	}
	fmt.Printf("%-4s user=%s trades=%d checked=%d matched=%d missing=%d\n",
		status, r.User, r.TradeCount, r.CheckedRecords, r.MatchedRecords, r.MissingRecords)

	for _, res := range r.Results {
		if res.Match && !verbose {
			continue
		}
		switch {
		case res.Missing:
			fmt.Printf("  seq=%d MISSING\n", res.Sequence)
		case res.Match:
			fmt.Printf("  seq=%d ok\n", res.Sequence)
		default:
			for _, d := range res.Divergences {
				fmt.Printf("  seq=%d field=%s expected=%v actual=%v\n",
					res.Sequence, d.Field, d.Expected, d.Actual)
			}
		}
	}
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
