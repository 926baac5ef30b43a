package ecolor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// HDR10Metadata mirrors the HDR10 static metadata block that presentation
// surfaces accept: chromaticities in units of 1/50000, light levels in nits.
type HDR10Metadata struct {
	RedPrimary                [2]uint16
	GreenPrimary              [2]uint16
	BluePrimary               [2]uint16
	WhitePoint                [2]uint16
	MaxMasteringLuminance     uint32
	MinMasteringLuminance     uint32
	MaxContentLightLevel      uint16
	MaxFrameAverageLightLevel uint16
}

const chromaticityUnits = 50000.0

// Rounded, not truncated: 0.3127*50000 is a hair under 15635 in float64
func toChromaUnits(c Chromaticity) [2]uint16 {
	return [2]uint16{
		uint16(math.Round(c.X * chromaticityUnits)),
		uint16(math.Round(c.Y * chromaticityUnits)),
	}
}

// NewHDR10Metadata fills in the display primaries and the content light
// level. There is no mastering display information, and no frame average,
// so those stay zero.
func NewHDR10Metadata(d DisplayInfo, maxCLL float64) HDR10Metadata {
	if maxCLL < 0 {
		maxCLL = 0
	} else if maxCLL > 0xFFFF {
		maxCLL = 0xFFFF
	}
	return HDR10Metadata{
		RedPrimary:           toChromaUnits(d.RedPrimary),
		GreenPrimary:         toChromaUnits(d.GreenPrimary),
		BluePrimary:          toChromaUnits(d.BluePrimary),
		WhitePoint:           toChromaUnits(d.WhitePoint),
		MaxContentLightLevel: uint16(maxCLL),
	}
}

// Bytes is the little-endian wire form, 28 bytes long.
func (m HDR10Metadata) Bytes() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, m) // writes to a bytes.Buffer don't fail
	return buf.Bytes()
}

func ParseHDR10Metadata(b []byte) (HDR10Metadata, error) {
	m := HDR10Metadata{}
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &m); err != nil {
		return m, fmt.Errorf("hdr10 metadata: %v", err)
	}
	return m, nil
}

func (m HDR10Metadata) String() string {
	return fmt.Sprintf("HDR10{R%v G%v B%v W%v MaxCLL:%d}", m.RedPrimary, m.GreenPrimary, m.BluePrimary, m.WhitePoint, m.MaxContentLightLevel)
}
