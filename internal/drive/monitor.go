package drive

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pilebones/go-udev/netlink"

	"discripper/internal/logging"
)

// WaitForInsertion blocks until udev reports disc media present on the given
// device, the context is cancelled, or the netlink connection fails. The
// device may be a symlink; events are matched against its resolved name.
func WaitForInsertion(ctx context.Context, logger *slog.Logger, device string) error {
	logger = logging.NewComponentLogger(logger, "disc-monitor")

	resolved := device
	if r, err := filepath.EvalSymlinks(device); err == nil {
		resolved = r
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("connect netlink socket: %w", err)
	}
	defer conn.Close()

	events := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(events, errs, insertionMatcher())
	defer close(quit)

	logger.Info("waiting for disc insertion", logging.String("device", device))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case uevent := <-events:
			name := eventDeviceName(uevent)
			if name == "" || name != resolved {
				logger.Debug("ignoring event for other device", logging.String("device", name))
				continue
			}
			logger.Info("disc media detected", logging.String("device", name))
			return nil
		case err := <-errs:
			logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

// insertionMatcher matches block-subsystem change/add events that carry
// loaded CD-ROM media.
func insertionMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":      "block",
			"ID_CDROM":       "1",
			"ID_CDROM_MEDIA": "1",
		},
	})
	return rules
}

func eventDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return "/dev/" + parts[len(parts)-1]
}
