package gateway

import "fmt"

// TransportErrorKind classifies transport failures against the gateway.
type TransportErrorKind string

const (
	// KindNetwork covers connection failures and non-2xx HTTP responses.
	KindNetwork TransportErrorKind = "network"
	// KindTimeout covers deadline expiry before a response arrived.
	KindTimeout TransportErrorKind = "timeout"
	// KindDecode covers unparseable response bodies.
	KindDecode TransportErrorKind = "decode"
)

// TransportError reports a failure to complete an HTTP exchange with the
// gateway. Business-level failures inside a 200 response are not transport
// errors and pass through to the caller.
type TransportError struct {
	Kind TransportErrorKind
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway %s error on %s: %v", e.Kind, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
