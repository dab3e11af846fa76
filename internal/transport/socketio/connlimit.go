package socketio

import (
	"net"
	"strings"
	"sync"
)

// ConnectionLimiter caps concurrent remote UI clients. Loopback clients are
// never counted. When a new remote client exceeds the cap, the oldest remote
// client is evicted so a fresh controller always gets in.
type ConnectionLimiter struct {
	mu        sync.Mutex
	maxRemote int
	// remote client IDs, oldest first
	remote []string
	// clientID -> host
	hosts map[string]string
}

// NewConnectionLimiter allows up to maxRemote concurrent non-loopback clients.
// A non-positive maxRemote disables the cap.
func NewConnectionLimiter(maxRemote int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxRemote: maxRemote,
		hosts:     make(map[string]string),
	}
}

// TryAdd registers clientID connecting from address (host or host:port).
// It returns the ID of a client to evict, or "".
func (cl *ConnectionLimiter) TryAdd(clientID, address string) (allowed bool, evictedID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.hosts[clientID]; exists {
		return true, ""
	}

	host := hostOf(address)
	cl.hosts[clientID] = host
	if isLocalIP(host) {
		return true, ""
	}

	cl.remote = append(cl.remote, clientID)
	if cl.maxRemote > 0 && len(cl.remote) > cl.maxRemote {
		evictedID = cl.remote[0]
		cl.remote = cl.remote[1:]
		delete(cl.hosts, evictedID)
		return true, evictedID
	}
	return true, ""
}

// Remove unregisters a client when it disconnects.
func (cl *ConnectionLimiter) Remove(clientID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	host, exists := cl.hosts[clientID]
	if !exists {
		return
	}
	delete(cl.hosts, clientID)
	if isLocalIP(host) {
		return
	}

	for i, id := range cl.remote {
		if id == clientID {
			cl.remote = append(cl.remote[:i], cl.remote[i+1:]...)
			break
		}
	}
}

// Remote returns the number of tracked remote clients.
func (cl *ConnectionLimiter) Remote() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.remote)
}

func hostOf(address string) string {
	if host, _, err := net.SplitHostPort(address); err == nil {
		return host
	}
	return strings.Trim(address, "[]")
}

// isLocalIP reports whether host is a loopback address, IPv4-mapped forms included.
func isLocalIP(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
