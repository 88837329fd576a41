package testutil

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestVerbose(t *testing.T) {
	assert.True(t, verbose([]string{"-test.v"}))
	assert.True(t, verbose([]string{"-test.run=TestX", "-test.v=true"}))
	assert.True(t, verbose([]string{"-test.v=test2json"}))
	assert.False(t, verbose([]string{"-test.v=false"}))
	assert.False(t, verbose(nil))
}

func TestDisableLogging(t *testing.T) {
	var buf bytes.Buffer
	original := logrus.StandardLogger().Out
	logrus.SetOutput(&buf)
	defer logrus.SetOutput(original)

	t.Run("disabled", func(t *testing.T) {
		DisableLogging(t)
		logrus.Error("hidden")
	})
	logrus.Error("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}
