package model

import (
	"encoding/json"
	"fmt"
)

// FailureKind classifies why an extraction produced no links.
// FailureNone means the extraction succeeded, possibly with zero links.
type FailureKind int

const (
	// FailureNone indicates success.
	FailureNone FailureKind = iota

	// FailureResourceUnavailable indicates a local file could not be opened or read.
	FailureResourceUnavailable

	// FailureConnection indicates the transport connection could not be
	// established or broke during the exchange, including an unusable host.
	FailureConnection

	// FailureProtocol indicates the response body boundary could not be located.
	FailureProtocol
)

// String returns the machine-readable name of the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureResourceUnavailable:
		return "resource_unavailable"
	case FailureConnection:
		return "connection_failure"
	case FailureProtocol:
		return "protocol_failure"
	default:
		return "unknown"
	}
}

// ParseFailureKind is the inverse of FailureKind.String.
func ParseFailureKind(s string) (FailureKind, error) {
	for k := FailureNone; k <= FailureProtocol; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return FailureNone, fmt.Errorf("unknown failure kind %q", s)
}

// Hint returns a short remediation hint for the failure kind.
func (k FailureKind) Hint() string {
	switch k {
	case FailureResourceUnavailable:
		return "Check that the file exists and is readable."
	case FailureConnection:
		return "Check the URL host, the configured port and any proxy settings."
	case FailureProtocol:
		return "The response has no recognizable document boundary; try --boundary header."
	default:
		return ""
	}
}

// MarshalJSON encodes the failure kind as its string name.
func (k FailureKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a failure kind from its string name.
func (k *FailureKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFailureKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
