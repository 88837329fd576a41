//go:build integration

package solana

import (
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/greeter/pkg/ledger/tests"
	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/validatortest"
)

var testEndpoint string

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	endpoint, teardown, err := validatortest.StartValidator(pool)
	if err != nil {
		log.WithError(err).Error("Error starting solana-test-validator")
		os.Exit(1)
	}
	testEndpoint = endpoint

	code := m.Run()
	teardown()
	os.Exit(code)
}

func TestSolanaLedger(t *testing.T) {
	client := solana.New(testEndpoint, solana.WithTimeout(10*time.Second))
	l := New(testEndpoint, client, WithConfirmationTimeout(time.Minute))

	tests.RunTests(t, l, func() {})
}
