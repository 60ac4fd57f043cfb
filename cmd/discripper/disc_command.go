package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"discripper/internal/drive"
	"discripper/internal/services"
)

func newDiscCommand(cctx *commandContext) *cobra.Command {
	var (
		lockFlag   bool
		unlockFlag bool
		ejectFlag  bool
		closeFlag  bool
		allFlag    bool
		queryRoot  string
		blacklist  []string
	)

	cmd := &cobra.Command{
		Use:   "disc [device...]",
		Short: "Query or control optical drives",
		Long: "Query or control optical drives. With no devices given, the devices " +
			"directory is scanned. Without an action flag, each drive's status is printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			root := queryRoot
			if root == "" {
				root = cfg.Devices.Root
			}
			blocked := blacklist
			if len(blocked) == 0 {
				blocked = cfg.Devices.Blacklist
			}
			onlySymlinks := cfg.Devices.OnlySymlinks
			if allFlag {
				onlySymlinks = false
				blocked = nil
			}

			var drives []*drive.Drive
			if len(args) > 0 {
				for _, path := range args {
					d, err := drive.New(path)
					if err != nil {
						return services.Wrap(services.ErrDevice, "disc", "open device", path, err)
					}
					drives = append(drives, d)
				}
			} else {
				drives, err = drive.Discover(root, onlySymlinks, blocked)
				if err != nil {
					return err
				}
			}

			action := lockFlag || unlockFlag || ejectFlag || closeFlag
			if !action {
				printDriveTable(cmd, drives)
				return nil
			}

			for _, d := range drives {
				if !d.Valid() {
					continue
				}
				switch {
				case unlockFlag:
					cmd.Printf("Unlocking %s\n", d.Name())
					err = d.Unlock()
				case lockFlag:
					cmd.Printf("Locking %s\n", d.Name())
					err = d.Lock()
				}
				if err != nil {
					return err
				}
				switch {
				case ejectFlag:
					cmd.Printf("Ejecting %s\n", d.Name())
					err = d.Eject()
				case closeFlag:
					cmd.Printf("Closing %s\n", d.Name())
					err = d.CloseTray()
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unlockFlag, "unlock", false, "Send the unlock tray command to each drive")
	cmd.Flags().BoolVar(&lockFlag, "lock", false, "Send the lock tray command to each drive")
	cmd.Flags().BoolVar(&ejectFlag, "eject", false, "Send the eject tray command to each drive")
	cmd.Flags().BoolVar(&closeFlag, "close", false, "Send the close tray command to each drive")
	cmd.Flags().StringVar(&queryRoot, "query", "", "Directory to scan for devices when none are given")
	cmd.Flags().StringSliceVar(&blacklist, "blacklist", nil, "Device names to ignore while scanning")
	cmd.Flags().BoolVar(&allFlag, "all", false, "Include raw device names and ignore the blacklist while scanning")

	cmd.MarkFlagsMutuallyExclusive("lock", "unlock")
	cmd.MarkFlagsMutuallyExclusive("eject", "close")

	return cmd
}

func printDriveTable(cmd *cobra.Command, drives []*drive.Drive) {
	if len(drives) == 0 {
		cmd.Println("No optical drives found.")
		return
	}
	rows := make([][]string, 0, len(drives))
	for _, d := range drives {
		rows = append(rows, []string{
			d.Name(),
			strconv.FormatBool(d.Valid()),
			d.DriveStatus().String(),
			d.DiscStatus().String(),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Device", "Valid", "Drive Status", "Disc Status"},
		rows,
	))
}
