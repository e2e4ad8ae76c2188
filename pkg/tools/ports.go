package tools

import (
	"fmt"
	"net"
)

// IsLocalPortFree reports whether a listener can be opened on the given
// localhost port. Used before opening port-forward tunnels.
func IsLocalPortFree(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}

	_ = listener.Close()

	return true
}
