package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/eldtechnologies/haikunft/clients/go/haikunft"
	"github.com/eldtechnologies/haikunft/internal/crypto"
)

func main() {
	key := flag.String("key", "", "Ed25519 private key (ed25519:<base58>)")
	accountID := flag.String("account", "", "Account id that holds the key, e.g. alice.testnet")
	bodyFile := flag.String("body", "", "File containing the JSON payload to sign (or use stdin)")
	flag.Parse()

	if *key == "" || *accountID == "" {
		fmt.Fprintln(os.Stderr, "Usage: sign -key <ed25519:private-key> -account <account-id> [-body <file>]")
		fmt.Fprintln(os.Stderr, "  Reads the payload from stdin if -body not specified")
		os.Exit(1)
	}

	privKey, err := crypto.ParsePrivateKey(*key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid private key: %v\n", err)
		os.Exit(1)
	}

	// Read payload
	var payload []byte
	if *bodyFile != "" {
		payload, err = os.ReadFile(*bodyFile)
	} else {
		payload, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read payload: %v\n", err)
		os.Exit(1)
	}
	if !json.Valid(payload) {
		fmt.Fprintln(os.Stderr, "Payload is not valid JSON")
		os.Exit(1)
	}

	// Output the request body for any signed route
	if err := json.NewEncoder(os.Stdout).Encode(haikunft.Sign(privKey, *accountID, payload)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write request: %v\n", err)
		os.Exit(1)
	}
}
