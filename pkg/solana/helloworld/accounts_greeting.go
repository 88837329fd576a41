package helloworld

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/binary"
)

const (
	GreetingAccountSize = 4 // counter
)

// GreetingAccount is the greeting program's per-payer record.
type GreetingAccount struct {
	Counter uint32
}

// Marshal always returns exactly GreetingAccountSize bytes.
func (obj GreetingAccount) Marshal() []byte {
	data := make([]byte, GreetingAccountSize)

	var offset int
	binary.PutUint32(data[offset:], obj.Counter, &offset)

	return data
}

// Unmarshal decodes the leading GreetingAccountSize bytes. Anything after them
// is ignored.
func (obj *GreetingAccount) Unmarshal(data []byte) error {
	if len(data) < GreetingAccountSize {
		return ErrMalformedRecord
	}

	var offset int
	binary.GetUint32(data[offset:], &obj.Counter, &offset)

	return nil
}

func (obj GreetingAccount) String() string {
	return fmt.Sprintf("GreetingAccount{counter=%d}", obj.Counter)
}

// GreetingAccountFromAccountInfo decodes a fetched account after checking that
// program owns it.
func GreetingAccountFromAccountInfo(program ed25519.PublicKey, info solana.AccountInfo) (*GreetingAccount, error) {
	if !bytes.Equal(info.Owner, program) {
		return nil, ErrInvalidAccountOwner
	}

	var obj GreetingAccount
	if err := obj.Unmarshal(info.Data); err != nil {
		return nil, err
	}
	return &obj, nil
}
