package transport

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Waits up to timeout for the requested readiness.
// Interrupted waits report no readiness.
func (sock *Socket) Poll(interest Interest, timeout time.Duration) (ready Interest, err error) {
	var events int16
	if interest&Read != 0 {
		events |= unix.POLLIN
	}
	if interest&Write != 0 {
		events |= unix.POLLOUT
	}

	fds := []unix.PollFd{{Fd: int32(sock.fd), Events: events}}

	timeoutMs := int(timeout / time.Millisecond)
	if timeout > 0 && timeoutMs == 0 {
		timeoutMs = 1
	}

	n, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			err = nil
			return
		}
		err = fmt.Errorf("poll failed: %w", err)
		return
	}
	if n == 0 {
		return
	}

	revents := fds[0].Revents
	if revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP) != 0 && interest&Read != 0 {
		ready |= Read
	}
	if revents&unix.POLLOUT != 0 {
		ready |= Write
	}
	if revents&unix.POLLNVAL != 0 {
		err = fmt.Errorf("poll on invalid descriptor %d", sock.fd)
	}
	return
}
