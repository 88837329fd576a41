// Package testutil holds helpers shared by the module's tests.
package testutil

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// Importing testutil discards log output unless the test binary runs with -v.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	if !verbose(os.Args[1:]) {
		logrus.SetOutput(io.Discard)
	}
}

func verbose(args []string) bool {
	for _, arg := range args {
		if arg == "-test.v" || (strings.HasPrefix(arg, "-test.v=") && arg != "-test.v=false") {
			return true
		}
	}
	return false
}

// DisableLogging discards log output until t finishes.
func DisableLogging(t testing.TB) {
	original := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	t.Cleanup(func() {
		logrus.SetOutput(original)
	})
}
