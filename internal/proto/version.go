package proto

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ProtocolVersion wraps a semantic version for the handshake's
// protocolVersion field. The handshake only ever sends a bare major
// integer ("protocolVersion=1"); it is parsed here as "<n>.0.0" so version
// comparisons can use the real semver ordering rules instead of a
// hand-rolled string-prefix parser.
type ProtocolVersion struct {
	ver *semver.Version
}

// CurrentProtocolVersion is the version this server speaks.
var CurrentProtocolVersion = MustParseVersion(1)

// ParseVersion parses a bare protocol major-version integer, as carried in
// the handshake message's protocolVersion field.
func ParseVersion(major int) (ProtocolVersion, error) {
	if major <= 0 {
		return ProtocolVersion{}, fmt.Errorf("protocol version must be positive, got %d", major)
	}
	v, err := semver.NewVersion(fmt.Sprintf("%d.0.0", major))
	if err != nil {
		return ProtocolVersion{}, fmt.Errorf("parsing protocol version %d: %w", major, err)
	}
	return ProtocolVersion{ver: v}, nil
}

// MustParseVersion is ParseVersion but panics on error; used only for the
// package-level CurrentProtocolVersion constant at init time.
func MustParseVersion(major int) ProtocolVersion {
	v, err := ParseVersion(major)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the version's major component.
func (v ProtocolVersion) Major() uint64 {
	if v.ver == nil {
		return 0
	}
	return v.ver.Major()
}

// String renders the version as its bare major integer.
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d", v.Major())
}

// IsCompatible reports whether two protocol versions share a major version.
// Differing major versions indicate a breaking change and the handshake
// must fail with status "error".
func IsCompatible(client, server ProtocolVersion) bool {
	return client.Major() == server.Major()
}

// CompareVersion compares two protocol versions by major version, returning
// -1, 0, or 1.
func CompareVersion(a, b ProtocolVersion) int {
	switch {
	case a.Major() < b.Major():
		return -1
	case a.Major() > b.Major():
		return 1
	default:
		return 0
	}
}
