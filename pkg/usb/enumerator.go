package usb

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSysfsRoot lists one directory per USB device and interface.
const DefaultSysfsRoot = "/sys/bus/usb/devices"

// Enumerator lists the USB devices currently connected.
type Enumerator interface {
	Devices() ([]Identifier, error)
}

// SysfsEnumerator reads vendor and product ids from sysfs.
type SysfsEnumerator struct {
	// Root defaults to DefaultSysfsRoot.
	Root string
}

// Compile-time interface satisfaction check.
var _ Enumerator = (*SysfsEnumerator)(nil)

// Devices returns one Identifier per distinct vendor/product pair. Name
// is the device's product string when sysfs has one.
func (e *SysfsEnumerator) Devices() ([]Identifier, error) {
	root := e.Root
	if root == "" {
		root = DefaultSysfsRoot
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var (
		out  []Identifier
		seen = make(map[Key]bool)
	)
	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		vid, err := readHex(filepath.Join(dir, "idVendor"))
		if err != nil {
			continue
		}
		pid, err := readHex(filepath.Join(dir, "idProduct"))
		if err != nil {
			continue
		}
		id := Identifier{VendorID: vid, ProductID: pid}
		if seen[id.Key()] {
			continue
		}
		seen[id.Key()] = true
		if b, err := os.ReadFile(filepath.Join(dir, "product")); err == nil {
			id.Name = strings.TrimSpace(string(b))
		}
		out = append(out, id)
	}
	return out, nil
}

func readHex(path string) (uint16, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return 0, fs.ErrInvalid
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, errors.Join(fs.ErrInvalid, err)
	}
	return uint16(v), nil
}

// Compatible returns the rule entries whose vendor/product pair is among
// connected, in rules order.
func Compatible(rules, connected []Identifier) []Identifier {
	present := make(map[Key]bool, len(connected))
	for _, id := range connected {
		present[id.Key()] = true
	}
	var out []Identifier
	for _, id := range rules {
		if present[id.Key()] {
			out = append(out, id)
		}
	}
	return out
}

// Diff compares two device sets by vendor/product pair.
func Diff(previous, current []Identifier) (added, removed []Identifier) {
	prev := make(map[Key]bool, len(previous))
	for _, id := range previous {
		prev[id.Key()] = true
	}
	cur := make(map[Key]bool, len(current))
	for _, id := range current {
		cur[id.Key()] = true
		if !prev[id.Key()] {
			added = append(added, id)
		}
	}
	for _, id := range previous {
		if !cur[id.Key()] {
			removed = append(removed, id)
		}
	}
	return added, removed
}
