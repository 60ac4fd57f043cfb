// Package drive queries and controls optical drives through CDROM ioctls
// and discovers candidate devices under a devices directory.
//
// References:
//   - include/uapi/linux/cdrom.h in the Linux source tree
package drive

import "fmt"

// DriveStatus represents the result of a CDROM_DRIVE_STATUS ioctl call.
type DriveStatus int

const (
	DriveNoInfo   DriveStatus = 0
	DriveNoDisc   DriveStatus = 1
	DriveTrayOpen DriveStatus = 2
	DriveNotReady DriveStatus = 3
	DriveDiscOK   DriveStatus = 4
)

// String returns a human-readable label for the drive status.
func (s DriveStatus) String() string {
	switch s {
	case DriveNoInfo:
		return "no_info"
	case DriveNoDisc:
		return "no_disc"
	case DriveTrayOpen:
		return "tray_open"
	case DriveNotReady:
		return "not_ready"
	case DriveDiscOK:
		return "disc_ok"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// decodeDriveStatus validates a raw ioctl result against the closed
// enumeration. An unknown code means the kernel reported a physical state
// this package does not understand, which is fatal rather than ignorable.
func decodeDriveStatus(code int) (DriveStatus, error) {
	switch s := DriveStatus(code); s {
	case DriveNoInfo, DriveNoDisc, DriveTrayOpen, DriveNotReady, DriveDiscOK:
		return s, nil
	default:
		return DriveNoInfo, fmt.Errorf("unknown drive status code %d", code)
	}
}

// DiscStatus represents the result of a CDROM_DISC_STATUS ioctl call.
// When a disc is present the kernel reports its content type.
type DiscStatus int

const (
	DiscNoInfo DiscStatus = 0
	DiscNoDisc DiscStatus = 1

	DiscAudio DiscStatus = 100
	DiscData1 DiscStatus = 101
	DiscData2 DiscStatus = 102
	DiscXA1   DiscStatus = 103
	DiscXA2   DiscStatus = 104
	DiscMixed DiscStatus = 105
)

// String returns a human-readable label for the disc status.
func (s DiscStatus) String() string {
	switch s {
	case DiscNoInfo:
		return "no_info"
	case DiscNoDisc:
		return "no_disc"
	case DiscAudio:
		return "audio (red book)"
	case DiscData1:
		return "data (yellow book, mode 1 form 1)"
	case DiscData2:
		return "data (yellow book, mode 1 form 2)"
	case DiscXA1:
		return "xa data (green book, mode 2 form 1)"
	case DiscXA2:
		return "xa data (green book, mode 2 form 2)"
	case DiscMixed:
		return "mixed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

func decodeDiscStatus(code int) (DiscStatus, error) {
	switch s := DiscStatus(code); s {
	case DiscNoInfo, DiscNoDisc, DiscAudio, DiscData1, DiscData2, DiscXA1, DiscXA2, DiscMixed:
		return s, nil
	default:
		return DiscNoInfo, fmt.Errorf("unknown disc status code %d", code)
	}
}
