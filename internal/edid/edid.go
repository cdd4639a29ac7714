package edid

import (
	"encoding/binary"
	"fmt"
)

const (
	// MinLength is the size of the base EDID block.
	MinLength = 128

	descriptorStart  = 0x36
	descriptorLength = 18
	tagDisplayName   = 0xFC
)

var header = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// Identity describes a monitor as reported by its EDID block.
type Identity struct {
	// Manufacturer is the three letter PNP id, e.g. "DEL".
	Manufacturer string `json:"manufacturer"`
	ProductCode  uint16 `json:"productCode"`
	SerialNumber uint32 `json:"serialNumber"`
	// DisplayName is the name from the display name descriptor, empty when the
	// monitor does not report one.
	DisplayName string `json:"displayName"`
}

// Parse extracts the monitor identity from a raw EDID blob.
func Parse(blob []byte) (*Identity, error) {
	if len(blob) < MinLength {
		return nil, fmt.Errorf("EDID too short: %d bytes", len(blob))
	}
	for i, b := range header {
		if blob[i] != b {
			return nil, fmt.Errorf("invalid EDID header")
		}
	}

	identity := &Identity{
		Manufacturer: decodeManufacturer(blob[8], blob[9]),
		ProductCode:  uint16(blob[10])<<8 | uint16(blob[11]),
		SerialNumber: binary.LittleEndian.Uint32(blob[12:16]),
		DisplayName:  decodeDisplayName(blob),
	}
	return identity, nil
}

// String returns the display name, falling back to manufacturer and product
// code for monitors that do not report one.
func (i Identity) String() string {
	if len(i.DisplayName) > 0 {
		return i.DisplayName
	}
	return fmt.Sprintf("%s %04x", i.Manufacturer, i.ProductCode)
}

// Key returns a stable identifier for this monitor, suitable as a persistence key.
func (i Identity) Key() string {
	return fmt.Sprintf("%s-%04x-%08x", i.Manufacturer, i.ProductCode, i.SerialNumber)
}

// decodeManufacturer decodes the big-endian 3x5 bit PNP manufacturer id.
func decodeManufacturer(hi byte, lo byte) string {
	id := uint16(hi)<<8 | uint16(lo)
	letters := []uint16{
		(id >> 10) & 0x1F,
		(id >> 5) & 0x1F,
		id & 0x1F,
	}

	var result []byte
	for _, letter := range letters {
		if letter == 0 || letter > 26 {
			continue
		}
		result = append(result, byte('A'+letter-1))
	}
	return string(result)
}

// decodeDisplayName scans the four 18 byte descriptor blocks of the base
// EDID block for a display name descriptor and returns its printable
// content.
func decodeDisplayName(blob []byte) string {
	for i := 0; i < 4; i++ {
		offset := descriptorStart + i*descriptorLength
		if offset+descriptorLength > len(blob) {
			break
		}
		if blob[offset] != 0 || blob[offset+1] != 0 || blob[offset+2] != 0 {
			continue
		}
		if blob[offset+3] != tagDisplayName {
			continue
		}

		var name []byte
		for j := 0; j < 13; j++ {
			c := blob[offset+5+j]
			if c == 0x0A {
				break
			}
			if c >= 0x20 && c < 0x7F {
				name = append(name, c)
			}
		}
		return string(name)
	}
	return ""
}
