// Package hotplug watches for events that invalidate the detected monitor
// setup: drm hotplug uevents from the kernel and wakes from system sleep.
package hotplug

import (
	"context"
	"strings"
	"syscall"

	"github.com/brightless/brightless/internal/ui"
)

// Uevents delivers a signal whenever the kernel reports a change on a drm
// device, f.ex. when a monitor is plugged in or a link goes down. Events
// are coalesced, a burst of uevents yields a single signal until it is
// consumed.
func Uevents(ctx context.Context) (<-chan struct{}, error) {
	fd, err := syscall.Socket(syscall.AF_NETLINK, syscall.SOCK_RAW, syscall.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, err
	}

	addr := &syscall.SockaddrNetlink{
		Family: syscall.AF_NETLINK,
		Groups: 1, // listen to broadcast uevents
	}
	if err := syscall.Bind(fd, addr); err != nil {
		_ = syscall.Close(fd)
		return nil, err
	}

	// closing the socket is the only way to unblock Recvfrom
	go func() {
		<-ctx.Done()
		_ = syscall.Close(fd)
	}()

	events := make(chan struct{}, 1)
	go func() {
		defer close(events)

		buf := make([]byte, 4096)
		for {
			n, _, err := syscall.Recvfrom(fd, buf, 0)
			if err != nil {
				if ctx.Err() != nil || err != syscall.EINTR {
					return
				}
				continue
			}

			if !isDrmChangeEvent(string(buf[:n])) {
				continue
			}
			ui.Debug("Received drm change uevent")
			select {
			case events <- struct{}{}:
			default:
			}
		}
	}()

	return events, nil
}

// isDrmChangeEvent parses the null-separated key=value properties of a
// uevent message. Substring matching would also hit drm_dp_aux_dev events.
func isDrmChangeEvent(msg string) bool {
	subsystem, action := "", ""
	for _, part := range strings.Split(msg, "\x00") {
		if value, ok := strings.CutPrefix(part, "SUBSYSTEM="); ok {
			subsystem = value
		}
		if value, ok := strings.CutPrefix(part, "ACTION="); ok {
			action = value
		}
	}
	return subsystem == "drm" && action == "change"
}
