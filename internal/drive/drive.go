package drive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Linux ioctl numbers from include/uapi/linux/cdrom.h.
const (
	ioctlDriveStatus = 0x5326
	ioctlDiscStatus  = 0x5327
	ioctlEject       = 0x5309
	ioctlCloseTray   = 0x5319
	ioctlLockDoor    = 0x5329
)

// majorSCSICDROM is the block major number assigned to SCSI CD-ROM drives.
const majorSCSICDROM = 11

// Drive is a handle on one optical device path. One orchestrator owns one
// Drive for its lifetime; handles are never shared across goroutines.
type Drive struct {
	path        string
	absPath     string
	symlink     bool
	valid       bool
	driveStatus DriveStatus
	discStatus  DiscStatus
}

// New constructs a handle for the given device path and performs an initial
// status query. An invalid device (wrong major, missing path) yields a
// handle with Valid() == false rather than an error; a device that exists
// but reports an undecodable status yields an error.
func New(path string) (*Drive, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	d := &Drive{path: path, absPath: abs}
	if info, err := os.Lstat(path); err == nil {
		d.symlink = info.Mode()&os.ModeSymlink != 0
	}
	if err := d.Query(); err != nil {
		return nil, err
	}
	return d, nil
}

// Query refreshes validity and both status codes. Devices whose major
// number is not the optical class are marked invalid and not queried.
func (d *Drive) Query() error {
	d.valid = false
	if _, err := os.Stat(d.path); err != nil {
		return nil
	}
	ok, err := validDiscDevice(d.path)
	if err != nil || !ok {
		return nil
	}
	d.valid = true

	status, err := d.QueryDriveStatus()
	if err != nil {
		return err
	}
	d.driveStatus = status

	disc, err := d.QueryDiscStatus()
	if err != nil {
		return err
	}
	d.discStatus = disc
	return nil
}

// Path returns the device path as given at construction.
func (d *Drive) Path() string { return d.path }

// Name returns the operator-facing name: the symlink path when the handle
// was built from one (udev aliases), the resolved path otherwise.
func (d *Drive) Name() string {
	if d.symlink {
		return d.path
	}
	if resolved, err := filepath.EvalSymlinks(d.path); err == nil {
		return resolved
	}
	return d.path
}

// ResolvedPath returns the canonical device path for handing to external
// tools, which expect kernel names.
func (d *Drive) ResolvedPath() string {
	if resolved, err := filepath.EvalSymlinks(d.path); err == nil {
		return resolved
	}
	return d.path
}

// Valid reports whether the path is a recognized optical-class block device.
func (d *Drive) Valid() bool { return d.valid }

// DriveStatus returns the drive status captured by the last Query.
func (d *Drive) DriveStatus() DriveStatus { return d.driveStatus }

// DiscStatus returns the disc status captured by the last Query.
func (d *Drive) DiscStatus() DiscStatus { return d.discStatus }

// QueryDriveStatus issues a fresh CDROM_DRIVE_STATUS ioctl.
func (d *Drive) QueryDriveStatus() (DriveStatus, error) {
	code, err := ioctlRet(d.path, ioctlDriveStatus)
	if err != nil {
		return DriveNoInfo, err
	}
	return decodeDriveStatus(code)
}

// QueryDiscStatus issues a fresh CDROM_DISC_STATUS ioctl.
func (d *Drive) QueryDiscStatus() (DiscStatus, error) {
	code, err := ioctlRet(d.path, ioctlDiscStatus)
	if err != nil {
		return DiscNoInfo, err
	}
	return decodeDiscStatus(code)
}

// Eject opens the tray.
func (d *Drive) Eject() error {
	_, err := ioctlRet(d.path, ioctlEject)
	return err
}

// CloseTray closes the tray.
func (d *Drive) CloseTray() error {
	_, err := ioctlRet(d.path, ioctlCloseTray)
	return err
}

// Lock locks the tray door.
func (d *Drive) Lock() error {
	return ioctlSet(d.path, ioctlLockDoor, 1)
}

// Unlock unlocks the tray door.
func (d *Drive) Unlock() error {
	return ioctlSet(d.path, ioctlLockDoor, 0)
}

// String renders the handle the way the disc CLI prints it.
func (d *Drive) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Filename: %s", d.Name())
	if d.symlink {
		fmt.Fprintf(&b, " (%s)", d.absPath)
	}
	fmt.Fprintf(&b, "\nValid: %t", d.valid)
	fmt.Fprintf(&b, "\nDrive Status: %s", d.driveStatus)
	fmt.Fprintf(&b, "\nDisc Status: %s", d.discStatus)
	return b.String()
}

// less orders handles so symlink paths sort before raw device paths;
// handles of the same kind order lexically. This keeps operator-facing
// udev aliases ahead of kernel-assigned names in listings.
func less(a, b *Drive) bool {
	switch {
	case a.symlink && b.symlink:
		return a.absPath < b.absPath
	case a.symlink:
		return true
	case b.symlink:
		return false
	default:
		return a.path < b.path
	}
}

// ioctlRet opens the device non-blocking, issues one ioctl, and closes the
// descriptor before returning the ioctl's result value.
func ioctlRet(path string, request uint) (int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)

	code, err := unix.IoctlRetInt(fd, request)
	if err != nil {
		return 0, fmt.Errorf("ioctl 0x%x on %s: %w", request, path, err)
	}
	return code, nil
}

// ioctlSet issues one ioctl carrying an integer argument.
func ioctlSet(path string, request uint, value int) error {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)

	if err := unix.IoctlSetInt(fd, request, value); err != nil {
		return fmt.Errorf("ioctl 0x%x on %s: %w", request, path, err)
	}
	return nil
}

func validDiscDevice(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return unix.Major(uint64(st.Rdev)) == majorSCSICDROM, nil
}
