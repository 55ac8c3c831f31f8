package extern

import "pscript/pkg/perr"

func arityLimitExceeded(name string) error {
	return perr.New(perr.ArityLimitExceeded, "extern call %q exceeds the maximum of %d arguments", name, MaxArity)
}

// ErrNoBridge is returned by the interpreter (not by this package) when an
// extern lookup is attempted with no Library configured at all (spec
// §7 NoExternBridge). Kept here alongside the rest of this package's error
// construction for discoverability.
func ErrNoBridge() error {
	return perr.New(perr.NoExternBridge, "no extern bridge configured")
}

func ErrNotFound(name string) error {
	return perr.New(perr.ExternNotFound, "extern symbol %q not found in any chained library", name)
}
