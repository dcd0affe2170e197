package svc

import (
	"runtime/debug"

	// Sets GOMEMLIMIT from cgroup limits when containerized.
	_ "github.com/KimMachineGun/automemlimit"
)

// Version returns the module version of the running binary as recorded
// by the Go toolchain, or "0.0.0-dev" when built outside of a module
// context (go run, test binaries).
func Version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" || bi.Main.Version == "(devel)" {
		return "0.0.0-dev"
	}
	return bi.Main.Version
}
