//go:build linux

package mqueue

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/danmuck/mqmesh/internal/identity"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// mqAttr mirrors the kernel's struct mq_attr.
type mqAttr struct {
	Flags    int
	Maxmsg   int
	Msgsize  int
	Curmsgs  int
	reserved [4]int
}

// POSIX is the system message-queue namespace (/dev/mqueue).
type POSIX struct {
	attr Attr
}

func NewPOSIX(attr Attr) *POSIX {
	return &POSIX{attr: attr.WithDefaults()}
}

func (p *POSIX) OpenOwn(id identity.ID) (Channel, error) {
	return p.open(id, unix.O_CREAT)
}

func (p *POSIX) OpenRemote(id identity.ID) (Channel, error) {
	return p.open(id, 0)
}

func (p *POSIX) Unlink(id identity.ID) error {
	name, err := kernelName(id)
	if err != nil {
		return err
	}
	_, _, errno := unix.Syscall(unix.SYS_MQ_UNLINK, uintptr(unsafe.Pointer(name)), 0, 0)
	if errno != 0 {
		return resourceErr("unlink", id, errno)
	}
	return nil
}

func (p *POSIX) open(id identity.ID, extra int) (Channel, error) {
	name, err := kernelName(id)
	if err != nil {
		return nil, err
	}
	flags := unix.O_RDWR | unix.O_NONBLOCK | unix.O_CLOEXEC | extra

	var attr *mqAttr
	if extra&unix.O_CREAT != 0 {
		attr = &mqAttr{Maxmsg: p.attr.Capacity, Msgsize: p.attr.MessageSize}
	}

	var fd uintptr
	var errno unix.Errno
	for {
		fd, _, errno = unix.Syscall6(unix.SYS_MQ_OPEN, uintptr(unsafe.Pointer(name)), uintptr(flags), 0o600, uintptr(unsafe.Pointer(attr)), 0, 0)
		if errno != unix.EINTR {
			break
		}
	}
	if errno != 0 {
		return nil, resourceErr("open", id, errno)
	}

	ch := &posixChannel{
		id:   id,
		fd:   int(fd),
		evfd: -1,
		wake: make(chan struct{}, 1),
	}
	cur, err := ch.getattr()
	if err != nil {
		_ = unix.Close(ch.fd)
		return nil, err
	}
	ch.msgSize = cur.Msgsize
	return ch, nil
}

// kernelName strips the leading slash; the syscall takes the bare name.
func kernelName(id identity.ID) (*byte, error) {
	if id.IsNone() {
		return nil, fmt.Errorf("%w: empty name", ErrResource)
	}
	name, err := unix.BytePtrFromString(strings.TrimPrefix(id.ChannelName(), "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	return name, nil
}

func resourceErr(op string, id identity.ID, errno unix.Errno) error {
	if errno == unix.ENOENT {
		return fmt.Errorf("%w: %s %s", ErrNotFound, op, id.ChannelName())
	}
	if errno == unix.ENOSYS {
		return fmt.Errorf("%w: %s %s", ErrUnsupported, op, id.ChannelName())
	}
	return fmt.Errorf("%w: %s %s: %v", ErrResource, op, id.ChannelName(), errno)
}

type posixChannel struct {
	id      identity.ID
	fd      int
	msgSize int
	wake    chan struct{}

	mu     sync.Mutex
	closed bool
	evfd   int
	armCh  chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

func (c *posixChannel) ID() identity.ID {
	return c.id
}

func (c *posixChannel) handle() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return -1, ErrClosed
	}
	return c.fd, nil
}

func (c *posixChannel) Send(msg []byte) error {
	fd, err := c.handle()
	if err != nil {
		return err
	}
	if len(msg) == 0 || len(msg) > c.msgSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrMessageSize, len(msg), c.msgSize)
	}
	for {
		_, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDSEND, uintptr(fd), uintptr(unsafe.Pointer(&msg[0])), uintptr(len(msg)), 0, 0, 0)
		switch errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return ErrFull
		case unix.EMSGSIZE:
			return fmt.Errorf("%w: %s", ErrMessageSize, c.id.ChannelName())
		default:
			return fmt.Errorf("%w: send %s: %v", ErrCommunication, c.id.ChannelName(), errno)
		}
	}
}

func (c *posixChannel) Receive() ([]byte, error) {
	fd, err := c.handle()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, c.msgSize)
	for {
		n, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDRECEIVE, uintptr(fd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)), 0, 0, 0)
		switch errno {
		case 0:
			return buf[:n], nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return nil, ErrEmpty
		default:
			return nil, fmt.Errorf("%w: receive %s: %v", ErrCommunication, c.id.ChannelName(), errno)
		}
	}
}

func (c *posixChannel) Len() (int, error) {
	if _, err := c.handle(); err != nil {
		return 0, err
	}
	cur, err := c.getattr()
	if err != nil {
		return 0, err
	}
	return cur.Curmsgs, nil
}

func (c *posixChannel) getattr() (mqAttr, error) {
	var cur mqAttr
	_, _, errno := unix.Syscall(unix.SYS_MQ_GETSETATTR, uintptr(c.fd), 0, uintptr(unsafe.Pointer(&cur)))
	if errno != 0 {
		return mqAttr{}, resourceErr("getattr", c.id, errno)
	}
	return cur, nil
}

// Arm starts the watcher on first use. The watcher polls the queue
// descriptor, which the kernel reports readable while messages are pending.
func (c *posixChannel) Arm() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.evfd < 0 {
		evfd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
		if err != nil {
			return fmt.Errorf("%w: eventfd: %v", ErrResource, err)
		}
		c.evfd = evfd
		c.armCh = make(chan struct{}, 1)
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go c.watch()
	}
	notify(c.armCh)
	return nil
}

func (c *posixChannel) Wake() <-chan struct{} {
	return c.wake
}

func (c *posixChannel) watch() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		case <-c.armCh:
		}
		if !c.waitReadable() {
			return
		}
		notify(c.wake)
	}
}

// waitReadable blocks until the queue has data (true) or the channel is
// closing (false).
func (c *posixChannel) waitReadable() bool {
	for {
		fds := []unix.PollFd{
			{Fd: int32(c.fd), Events: unix.POLLIN},
			{Fd: int32(c.evfd), Events: unix.POLLIN},
		}
		_, err := unix.Poll(fds, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("channel", c.id.ChannelName()).Msg("mqueue.watch poll failed")
			return false
		}
		if fds[1].Revents != 0 {
			return false
		}
		if fds[0].Revents&unix.POLLIN != 0 {
			return true
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLNVAL|unix.POLLHUP) != 0 {
			log.Warn().Str("channel", c.id.ChannelName()).Int16("revents", fds[0].Revents).Msg("mqueue.watch descriptor error")
			return false
		}
	}
}

func (c *posixChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	evfd := c.evfd
	c.mu.Unlock()

	var errs error
	if evfd >= 0 {
		close(c.stop)
		var one [8]byte
		binary.NativeEndian.PutUint64(one[:], 1)
		if _, err := unix.Write(evfd, one[:]); err != nil {
			errs = fmt.Errorf("%w: wake watcher: %v", ErrResource, err)
		}
		<-c.done
		_ = unix.Close(evfd)
	}
	if err := unix.Close(c.fd); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrResource, c.id.ChannelName(), err)
	}
	return errs
}
