// Package identity derives the opaque voter identity used for duplicate
// detection from weak network/device signals.
package identity

import (
	"fmt"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

// Resolve combines the network address with an optional device signature into
// a single identity string. Resolution is a pure function: identical inputs
// always yield the identical identity. Two devices behind the same address are
// distinguishable only when they supply a signature; a device that changes
// networks is not. An empty address degrades to the shared "unknown" identity
// rather than failing the request.
func Resolve(networkAddress, deviceSignature string) string {
	if networkAddress == "" {
		networkAddress = domain.UnknownIdentity
	}
	if deviceSignature == "" {
		return networkAddress
	}
	return fmt.Sprintf("%s_%s", networkAddress, deviceSignature)
}

// Mangle appends a unique suffix so a row can bypass the ledger's unique
// identity index. Used for test-mode and administrative insertions, which are
// exempt from the one-ballot-per-identity rule.
func Mangle(identity, suffix string) string {
	return fmt.Sprintf("%s_%s", identity, suffix)
}
