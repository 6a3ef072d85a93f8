// Package elog is the ambient structured-logging seam for the client:
// a single package-level zerolog.Logger, silent by default so the
// library stays quiet unless a caller opts in, mirroring the disabled-
// by-default posture zerolog itself documents for libraries.
package elog

import (
	"io"

	"github.com/rs/zerolog"
)

// L is the package-wide logger used by transport/, rpcclient/, txn/,
// and signer/. It defaults to a disabled logger (writes nowhere, every
// level below Disabled is a no-op) so importing this module has no
// observable side effect until the caller calls SetLogger.
var L zerolog.Logger = zerolog.New(io.Discard).Level(zerolog.Disabled)

// SetLogger installs logger as the package-wide logger for the whole
// client. Call it once at startup; it is not safe to call
// concurrently with logging calls.
func SetLogger(logger zerolog.Logger) {
	L = logger
}
