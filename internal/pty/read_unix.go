//go:build unix

package pty

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// ReadAvailable returns whatever bytes the child has written, waiting at
// most the configured poll interval for output to appear. A nil slice with
// a nil error means nothing was buffered within the interval.
//
// Returns io.EOF once the PTY has drained after the child exited or the
// master was closed; the reader loop uses that to stop itself rather than
// spinning on a dead descriptor.
func (s *Supervisor) ReadAvailable() ([]byte, error) {
	s.mu.Lock()
	ptmx, err := s.masterLocked()
	if err != nil {
		s.mu.Unlock()
		if err == ErrClosed {
			return nil, io.EOF
		}
		return nil, err
	}
	interval := s.opts.PollInterval
	s.mu.Unlock()

	fd := int(ptmx.Fd())
	if fd < 0 {
		return nil, io.EOF
	}

	timeout := unix.NsecToTimeval(interval.Nanoseconds())
	readable, err := selectRead(fd, &timeout)
	if err != nil {
		// Close can race a poll in flight; a descriptor closed under us
		// means the stream is over, not a failure.
		if err == unix.EBADF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("select on pty: %w", err)
	}
	if !readable {
		return nil, nil
	}

	buf := make([]byte, 4096)
	nread, err := ptmx.Read(buf)
	if nread > 0 {
		return buf[:nread], nil
	}
	if err != nil {
		// Linux reports EIO on the master once the slave side is gone.
		// Either way the stream is over.
		return nil, io.EOF
	}
	return nil, nil
}

// selectRead runs select(2) on a single fd, retrying on EINTR with a zero
// timeout. select mutates the fd set, so it is rebuilt on every attempt.
func selectRead(fd int, timeout *unix.Timeval) (bool, error) {
	for {
		var readfds unix.FdSet
		readfds.Zero()
		readfds.Set(fd)
		n, err := unix.Select(fd+1, &readfds, nil, nil, timeout)
		if err == unix.EINTR {
			*timeout = unix.Timeval{}
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0 && readfds.IsSet(fd), nil
	}
}
