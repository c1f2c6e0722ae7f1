// Package main generates ledger identities: ed25519 keypairs whose public
// keys are accepted by the API's on-curve identity checks.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"swap-ledger/internal/identity"
)

func main() {
	seedHex := flag.String("seed", "", "Re-derive the identity from an existing 32-byte hex seed instead of generating")
	count := flag.Int("n", 1, "Number of keypairs to generate")

	flag.Parse()

	logger := log.New(os.Stderr, "[keygen] ", log.LstdFlags)

	if *seedHex != "" {
		seed, err := hex.DecodeString(*seedHex)
		if err != nil {
			logger.Fatalf("Decode seed: %v", err)
		}
		kp, err := identity.FromSeed(seed)
		if err != nil {
			logger.Fatalf("Load keypair: %v", err)
		}
		printKeypair(kp)
		return
	}

	for i := 0; i < *count; i++ {
		kp, err := identity.Generate()
		if err != nil {
			logger.Fatalf("Generate keypair: %v", err)
		}
		printKeypair(kp)
	}
}

func printKeypair(kp *identity.Keypair) {
	fmt.Printf("identity: %s\n", kp.Identity())
	fmt.Printf("seed:     %s\n", hex.EncodeToString(kp.Seed()))
}
