// Package validatortest runs solana-test-validator in Docker for integration
// tests.
package validatortest

import (
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/greeter/pkg/solana"
)

const (
	imageName = "solanalabs/solana"
	imageTag  = "v1.18.26"

	rpcPort = "8899/tcp"

	containerAutoKill = 300 * time.Second
	startupTimeout    = 2 * time.Minute
)

// StartValidator starts a single node test validator and returns its JSON-RPC
// endpoint once the node answers requests.
func StartValidator(pool *dockertest.Pool) (endpoint string, teardown func(), err error) {
	teardown = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: imageName,
		Tag:        imageTag,
		Entrypoint: []string{"solana-test-validator"},
		Cmd: []string{
			"--reset",
			"--quiet",
			"--ledger", "/tmp/test-ledger",
			"--bind-address", "0.0.0.0",
			"--rpc-port", "8899",
		},
		ExposedPorts: []string{rpcPort},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return "", teardown, errors.Wrap(err, "failed to start solana-test-validator")
	}

	// Expire() never returns an error
	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	log := logrus.StandardLogger().WithField("method", "StartValidator")

	teardown = func() {
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Error("failed to cleanup validator resource")
		}
	}

	endpoint = fmt.Sprintf("http://%s", resource.GetHostPort(rpcPort))
	client := solana.New(endpoint, solana.WithTimeout(time.Second))

	pool.MaxWait = startupTimeout
	err = pool.Retry(func() error {
		_, err := client.GetVersion()
		return err
	})
	if err != nil {
		teardown()
		return "", func() {}, errors.Wrap(err, "timed out waiting for validator to become available")
	}

	log.WithField("endpoint", endpoint).Debug("validator started")
	return endpoint, teardown, nil
}
