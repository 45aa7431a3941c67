package usb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoRules indicates a rules resource without any USB device entry.
var ErrNoRules = errors.New("no usb device rules found")

// Identifier is a USB vendor/product pair with an optional symbolic name.
type Identifier struct {
	VendorID  uint16
	ProductID uint16
	Name      string
}

// Key identifies the device by vendor and product only.
type Key struct {
	VendorID  uint16
	ProductID uint16
}

// Key returns the vendor/product pair.
func (id Identifier) Key() Key {
	return Key{VendorID: id.VendorID, ProductID: id.ProductID}
}

// String returns "vvvv:pppp".
func (id Identifier) String() string {
	return fmt.Sprintf("%04x:%04x", id.VendorID, id.ProductID)
}

// DisplayName returns the symbolic name with underscores as spaces.
func (id Identifier) DisplayName() string {
	return strings.ReplaceAll(id.Name, "_", " ")
}

// Matches reports whether a controller name refers to this device: the
// display name must occur in deviceName, ignoring case. Identifiers
// without a name match nothing.
func (id Identifier) Matches(deviceName string) bool {
	name := strings.TrimSpace(id.DisplayName())
	if name == "" {
		return false
	}
	return strings.Contains(strings.ToLower(deviceName), strings.ToLower(name))
}

// ruleLine captures vendor, product and the last TAG on a rules line.
var ruleLine = regexp.MustCompile(
	`ATTRS\{idVendor\}=="([0-9a-fA-F]{4})".*?ATTRS\{idProduct\}=="([0-9a-fA-F]{4})"(?:.*TAG\+="([^"]+)")?`)

// ParseRules extracts device identifiers from udev rules text. Duplicate
// vendor/product pairs keep their first entry. The generic "uaccess" tag
// is not a name.
func ParseRules(r io.Reader) ([]Identifier, error) {
	var (
		out  []Identifier
		seen = make(map[Key]bool)
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := ruleLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		vid, _ := strconv.ParseUint(m[1], 16, 16)
		pid, _ := strconv.ParseUint(m[2], 16, 16)
		id := Identifier{VendorID: uint16(vid), ProductID: uint16(pid)}
		if m[3] != "uaccess" {
			id.Name = m[3]
		}
		if seen[id.Key()] {
			continue
		}
		seen[id.Key()] = true
		out = append(out, id)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNoRules
	}
	return out, nil
}

// LoadRules parses the rules file at path.
func LoadRules(path string) ([]Identifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ids, err := ParseRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ids, nil
}
