package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "PHARMAFLOW_TEST_MODE"

var (
	testMode     bool
	testModeOnce sync.Once
)

// InTestMode reports whether PHARMAFLOW_TEST_MODE is set to a true value, in
// which case the binaries exit before opening any connection.
func InTestMode() bool {
	testModeOnce.Do(func() {
		testMode, _ = strconv.ParseBool(os.Getenv(testModeEnv))
	})
	return testMode
}
