// SPDX-License-Identifier: BSD-3-Clause

package enumerate

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperfan/hyperfand/pkg/model"
)

var (
	pciSegmentRe = regexp.MustCompile(`([0-9a-fA-F]{4}):([0-9a-fA-F]{2}):([0-9a-fA-F]{2})\.([0-9a-fA-F])`)
	i2cSegmentRe = regexp.MustCompile(`i2c-([0-9]+)`)
	usbSegmentRe = regexp.MustCompile(`usb([0-9]+)/([0-9.]+-[0-9.]+)`)
	acpiSegmentRe = regexp.MustCompile(`([A-Z0-9]{3,8}:[0-9a-fA-F]{2})`)
)

// inspectAnchors walks a chip's canonical sysfs path to extract the
// tier-1/2/3 anchors described in the data model. A chip anchored in more
// than one way (e.g. an I2C sensor behind a PCI SMBus controller) reports
// the anchor closest to the leaf device, since that's the most specific
// identity available.
func inspectAnchors(canonicalPath string) (model.Anchor, model.FirmwareAnchor, model.DriverAnchor) {
	anchor := extractHardwareAnchor(canonicalPath)
	firmware := readDMIFirmwareAnchor()
	driver := extractDriverAnchor(canonicalPath)
	return anchor, firmware, driver
}

func extractHardwareAnchor(path string) model.Anchor {
	if m := i2cSegmentRe.FindStringSubmatch(path); m != nil {
		busName, addr := readI2CIdentity(path, m[1])
		return model.Anchor{Kind: model.AnchorKindI2C, I2CBusName: busName, I2CAddress: addr}
	}
	if m := usbSegmentRe.FindStringSubmatch(path); m != nil {
		bus, _ := strconv.Atoi(m[1])
		return model.Anchor{Kind: model.AnchorKindUSB, USBBus: uint8(bus), USBPath: m[2]}
	}
	if m := pciSegmentRe.FindStringSubmatch(path); m != nil {
		domain, _ := strconv.ParseUint(m[1], 16, 16)
		bus, _ := strconv.ParseUint(m[2], 16, 8)
		device, _ := strconv.ParseUint(m[3], 16, 8)
		function, _ := strconv.ParseUint(m[4], 16, 8)
		vendor, devID := readPCIIdentity(path, m[0])
		return model.Anchor{
			Kind: model.AnchorKindPCI,
			PCIDomain: uint16(domain), PCIBus: uint8(bus), PCIDevice: uint8(device), PCIFunction: uint8(function),
			PCIVendorID: vendor, PCIDeviceID: devID,
		}
	}
	if m := acpiSegmentRe.FindStringSubmatch(path); m != nil {
		return model.Anchor{Kind: model.AnchorKindACPI, ACPIPath: m[1]}
	}
	return model.Anchor{Kind: model.AnchorKindPlatform, PlatformID: filepath.Base(path)}
}

func readPCIIdentity(fullPath, pciSegment string) (vendor, device uint16) {
	dir := fullPath[:strings.Index(fullPath, pciSegment)+len(pciSegment)]
	vendor = uint16(readHexFile(filepath.Join(dir, "vendor")))
	device = uint16(readHexFile(filepath.Join(dir, "device")))
	return
}

func readI2CIdentity(fullPath, busNum string) (busName string, addr uint8) {
	idx := strings.Index(fullPath, "i2c-"+busNum)
	dir := fullPath[:idx+len("i2c-"+busNum)]
	if data, err := os.ReadFile(filepath.Join(dir, "name")); err == nil {
		busName = strings.TrimSpace(string(data))
	}
	base := filepath.Base(fullPath)
	if parts := strings.SplitN(base, "-", 2); len(parts) == 2 {
		if v, err := strconv.ParseUint(parts[1], 16, 8); err == nil {
			addr = uint8(v)
		}
	}
	return
}

func readHexFile(path string) uint64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	s := strings.TrimSpace(string(data))
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0
	}
	return v
}

func extractDriverAnchor(path string) model.DriverAnchor {
	var anchor model.DriverAnchor

	driverLink := filepath.Join(path, "device", "driver")
	if target, err := os.Readlink(driverLink); err == nil {
		anchor.DriverName = filepath.Base(target)
	}

	if canonical, err := filepath.EvalSymlinks(path); err == nil {
		anchor.CanonicalSymlink = canonical
	} else {
		anchor.CanonicalSymlink = path
	}

	if data, err := os.ReadFile(filepath.Join(path, "device", "modalias")); err == nil {
		anchor.Modalias = strings.TrimSpace(string(data))
	}

	return anchor
}

// dmiRoot is the sysfs DMI class directory; overridable in tests.
var dmiRoot = "/sys/class/dmi/id"

func readDMIFirmwareAnchor() model.FirmwareAnchor {
	read := func(name string) string {
		data, err := os.ReadFile(filepath.Join(dmiRoot, name))
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(data))
	}
	return model.FirmwareAnchor{
		BoardVendor: read("board_vendor"),
		BoardName:   read("board_name"),
		ProductName: read("product_name"),
	}
}
