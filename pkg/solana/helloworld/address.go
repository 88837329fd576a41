package helloworld

import (
	"crypto/ed25519"

	"github.com/code-payments/greeter/pkg/solana"
)

// GreetingSeed is the only seed greeting accounts are derived with, so every
// payer has exactly one greeting account per program.
const GreetingSeed = "hello"

type GetGreetingAddressArgs struct {
	Payer   ed25519.PublicKey
	Program ed25519.PublicKey
}

// GetGreetingAddress returns createWithSeed(payer, GreetingSeed, program).
func GetGreetingAddress(args *GetGreetingAddressArgs) (ed25519.PublicKey, error) {
	return solana.CreateWithSeed(args.Payer, GreetingSeed, args.Program)
}
