// package protocol defines constants related to the client-server protocol.

package protocol

const (
	// Version indicates an incompatible change to the clock snapshot or
	// settlement JSON.  A display that sees a different number than it
	// started with should reload.
	Version = 1
)
