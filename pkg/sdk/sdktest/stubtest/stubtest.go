// Package stubtest serves an sdktest stub for the duration of a test.
package stubtest

import (
	"net/http/httptest"
	"testing"

	"github.com/manolisziCy/sports/pkg/sdk/sdktest"
)

// Start serves stub on a loopback listener closed when the test ends and
// returns the API base URL.
func Start(t testing.TB, stub *sdktest.Server) string {
	t.Helper()
	ts := httptest.NewServer(stub)
	t.Cleanup(ts.Close)
	return ts.URL + stub.BasePath()
}
