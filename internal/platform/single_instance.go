package platform

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	minGuardPort = 20000
	maxGuardPort = 39999
)

// InstanceGuard holds the single-instance lock. Two processes driving the
// same persisted timer would overwrite each other's snapshot.
type InstanceGuard struct {
	listener net.Listener
	address  string
}

// AcquireSingleInstance attempts to bind a localhost port derived from appName.
func AcquireSingleInstance(appName string) (*InstanceGuard, error) {
	address := GuardAddress(appName)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, address)
	}
	return &InstanceGuard{listener: listener, address: address}, nil
}

// GuardAddress returns the loopback address the guard for appName binds.
func GuardAddress(appName string) string {
	return fmt.Sprintf("127.0.0.1:%d", portFromName(appName))
}

// Release frees the single instance lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	return guard.listener.Close()
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func portFromName(appName string) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	rangeSize := maxGuardPort - minGuardPort + 1
	return minGuardPort + int(hash.Sum32()%uint32(rangeSize))
}
