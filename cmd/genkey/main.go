package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/eldtechnologies/haikunft/internal/crypto"
)

func main() {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Public key:  %s\n", crypto.EncodePublicKey(pub))
	fmt.Printf("Private key: %s\n", crypto.EncodePrivateKey(priv))
}
