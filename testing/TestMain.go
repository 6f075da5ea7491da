// Package testing puts portal binaries into test mode when blank imported by
// a test package, so main and config loading never reach real services.
package testing

import (
	"encoding/base64"
	"os"
	"strings"
	"sync"
	stdtesting "testing"
)

// JWTSecret is the signing secret exported to JWT_SECRET when none is set.
var JWTSecret = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("t", 32)))

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("PORTAL_TEST_MODE", "1")
		for key, value := range map[string]string{
			"JWT_SECRET":    JWTSecret,
			"REFRESH_STORE": "redis",
			"COOKIE_SECURE": "false",
		} {
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain can be assigned by packages that want test mode enforced before m.Run.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
