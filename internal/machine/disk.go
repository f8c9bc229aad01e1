package machine

// disk.go implements the simulated disk geometry and sector codec used by
// the DMA controller (spec §4.4), grounded on original_source/tipos.h's
// Disco_t ([10][10][100][9]byte) and dma.c's %08d sector formatting.

import (
	"fmt"
	"strconv"
)

// Disk geometry limits, matching original_source/tipos.h.
const (
	DiskTracks    = 10
	DiskCylinders = 10
	DiskSectors   = 100
	sectorDigits  = 8
)

// Disk is a fixed-geometry array of zero-padded 8-digit ASCII sectors. It
// has no behavior beyond storage; the DMA controller performs the bus
// arbitration and timing around accesses to it.
type Disk struct {
	sectors [DiskTracks][DiskCylinders][DiskSectors]sectorCodec
}

// NewDisk returns a disk with every sector initialized to "00000000".
func NewDisk() *Disk {
	d := &Disk{}
	for t := range d.sectors {
		for c := range d.sectors[t] {
			for s := range d.sectors[t][c] {
				d.sectors[t][c][s] = encodeSector(0)
			}
		}
	}

	return d
}

// ValidGeometry reports whether (track, cylinder, sector) addresses a real
// sector (spec §4.4 step 1).
func ValidGeometry(track, cylinder, sector int) bool {
	return track >= 0 && track < DiskTracks &&
		cylinder >= 0 && cylinder < DiskCylinders &&
		sector >= 0 && sector < DiskSectors
}

// ReadSector decodes the sector at the given address as a word.
func (d *Disk) ReadSector(track, cylinder, sector int) (Word, error) {
	return d.sectors[track][cylinder][sector].decode()
}

// WriteSector encodes w into the sector at the given address.
func (d *Disk) WriteSector(track, cylinder, sector int, w Word) {
	d.sectors[track][cylinder][sector] = encodeSector(w)
}

// sectorCodec is a dedicated small (un)marshaling type for the disk's
// fixed-width decimal format, in the style of the teacher's
// internal/encoding.HexEncoding rather than ad hoc fmt.Sprintf calls
// scattered through the DMA code.
type sectorCodec [sectorDigits]byte

func encodeSector(w Word) sectorCodec {
	s := fmt.Sprintf("%0*d", sectorDigits, int32(w))

	var c sectorCodec
	copy(c[:], s)

	return c
}

func (c sectorCodec) decode() (Word, error) {
	n, err := strconv.ParseInt(string(c[:]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("disk: malformed sector %q: %w", string(c[:]), err)
	}

	return Word(n), nil
}
