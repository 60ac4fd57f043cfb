package drive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Discover scans root for optical block devices and returns one valid
// handle per candidate, ordered so symlink names come first. Blacklisted
// base names are skipped; with onlySymlinks set, raw kernel names are too.
func Discover(root string, onlySymlinks bool, blacklist []string) ([]*Drive, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scan devices in %s: %w", root, err)
	}

	blocked := make(map[string]struct{}, len(blacklist))
	for _, name := range blacklist {
		blocked[name] = struct{}{}
	}

	var drives []*Drive
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if !isBlockDevice(path) {
			continue
		}
		if onlySymlinks && !isSymlink(path) {
			continue
		}
		if _, ok := blocked[entry.Name()]; ok {
			continue
		}
		d, err := New(path)
		if err != nil {
			return nil, err
		}
		if d.Valid() {
			drives = append(drives, d)
		}
	}

	sort.Slice(drives, func(i, j int) bool { return less(drives[i], drives[j]) })
	return drives, nil
}

// deviceEntry is the resolved view of one explicitly supplied device path.
type deviceEntry struct {
	path     string
	block    bool
	symlink  bool
	resolved string
}

// Deduplicate resolves explicitly supplied device paths against root, keeps
// only block devices, and collapses entries that point at the same physical
// device. When both a symlink and a raw path resolve to the same device the
// symlink wins; among multiple symlinks for one device the first given wins.
func Deduplicate(paths []string, root string) []string {
	entries := make([]deviceEntry, 0, len(paths))
	for _, path := range paths {
		if !filepath.IsAbs(path) {
			candidate := filepath.Join(root, filepath.Base(path))
			if isBlockDevice(candidate) {
				path = candidate
			}
		}
		entry := deviceEntry{
			path:    path,
			block:   isBlockDevice(path),
			symlink: isSymlink(path),
		}
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			entry.resolved = resolved
		} else {
			entry.resolved = path
		}
		entries = append(entries, entry)
	}
	return dedupeEntries(entries)
}

func dedupeEntries(entries []deviceEntry) []string {
	var symlinks, direct []deviceEntry
	seenDirect := make(map[string]struct{})
	for _, entry := range entries {
		if !entry.block {
			continue
		}
		if entry.symlink {
			symlinks = append(symlinks, entry)
			continue
		}
		if _, ok := seenDirect[entry.path]; ok {
			continue
		}
		seenDirect[entry.path] = struct{}{}
		direct = append(direct, entry)
	}

	// One symlink per target, keeping the first encountered.
	seenTarget := make(map[string]struct{}, len(symlinks))
	kept := symlinks[:0]
	for _, entry := range symlinks {
		if _, ok := seenTarget[entry.resolved]; ok {
			continue
		}
		seenTarget[entry.resolved] = struct{}{}
		kept = append(kept, entry)
	}
	symlinks = kept

	// Drop raw paths already covered by a symlink.
	filtered := direct[:0]
	for _, entry := range direct {
		if _, ok := seenTarget[entry.resolved]; ok {
			continue
		}
		filtered = append(filtered, entry)
	}
	direct = filtered

	result := make([]string, 0, len(symlinks)+len(direct))
	for _, entry := range symlinks {
		result = append(result, entry.path)
	}
	for _, entry := range direct {
		result = append(result, entry.path)
	}
	sort.Strings(result)
	return result
}

func isBlockDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	mode := info.Mode()
	return mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}
