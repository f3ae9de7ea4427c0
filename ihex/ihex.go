// Package ihex reads Intel HEX object files.
package ihex

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// ADDRESS_SPACE is the size of the 32-bit extended linear address space.
const ADDRESS_SPACE = 1 << 32

// Record types.
const (
	RECORD_DATA             = 0x00
	RECORD_EOF              = 0x01
	RECORD_EXTENDED_SEGMENT = 0x02
	RECORD_START_SEGMENT    = 0x03
	RECORD_EXTENDED_LINEAR  = 0x04
	RECORD_START_LINEAR     = 0x05
)

// Image is the memory content described by a HEX file, kept as the data
// records it was read from. Gaps between records load as zero.
type Image struct {
	Lowest  uint32 // Lowest loaded address.
	Highest uint32 // One past the last loaded byte.
	Start   uint32 // Start address record value, if any.
	Chunks  []Chunk
}

// Chunk is the payload of one data record at its absolute address.
type Chunk struct {
	Addr uint32
	Data []byte
}

// Len returns the number of bytes spanned by the image.
func (img *Image) Len() int {
	return int(img.Highest - img.Lowest)
}

// Load zeroes the span of the image in mem, then copies each record into
// place. Nothing is written unless the whole image fits.
func (img *Image) Load(mem []byte) (err error) {
	if int64(img.Highest) > int64(len(mem)) {
		err = fmt.Errorf("%w: %04X..%04X", ErrImageRange, img.Lowest, img.Highest)
		return
	}

	clear(mem[img.Lowest:img.Highest])
	for _, c := range img.Chunks {
		copy(mem[c.Addr:], c.Data)
	}
	return
}

// record decodes one line into its fields, checking length and checksum.
func record(line string) (kind uint8, addr uint16, data []byte, err error) {
	text, ok := strings.CutPrefix(line, ":")
	if !ok {
		err = ErrRecordStart
		return
	}

	raw, err := hex.DecodeString(text)
	if err != nil {
		err = ErrRecordHex
		return
	}

	if len(raw) < 5 || int(raw[0])+5 != len(raw) {
		err = ErrRecordLength
		return
	}

	var sum uint8
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		err = ErrRecordChecksum
		return
	}

	addr = uint16(raw[1])<<8 | uint16(raw[2])
	kind = raw[3]
	data = raw[4 : len(raw)-1]
	return
}

// Parse reads a HEX file up to its end of file record.
func Parse(r io.Reader) (img *Image, err error) {
	img = &Image{}
	var base uint32
	var start uint32
	eof := false

	scanner := bufio.NewScanner(r)
	line := 0
	for !eof && scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if len(text) == 0 {
			continue
		}

		kind, addr, data, rerr := record(text)
		if rerr == nil {
			switch kind {
			case RECORD_DATA:
				rerr = img.add(base+uint32(addr), data)
			case RECORD_EOF:
				eof = true
			case RECORD_EXTENDED_SEGMENT, RECORD_EXTENDED_LINEAR:
				if len(data) != 2 {
					rerr = ErrRecordLength
					break
				}
				base = uint32(data[0])<<8 | uint32(data[1])
				if kind == RECORD_EXTENDED_SEGMENT {
					base <<= 4
				} else {
					base <<= 16
				}
			case RECORD_START_SEGMENT, RECORD_START_LINEAR:
				if len(data) != 4 {
					rerr = ErrRecordLength
					break
				}
				start = uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
			default:
				rerr = fmt.Errorf("%w: %02X", ErrRecordType, kind)
			}
		}
		if rerr != nil {
			img = nil
			err = ErrRecord{Line: line, Err: rerr}
			return
		}
	}

	err = scanner.Err()
	if err == nil && !eof {
		err = ErrRecord{Line: line, Err: ErrEOFMissing}
	}
	if err != nil {
		img = nil
		return
	}

	img.Start = start
	return
}

// add records a data chunk, widening the image span.
func (img *Image) add(addr uint32, data []byte) (err error) {
	if len(data) == 0 {
		return
	}

	end := uint64(addr) + uint64(len(data))
	if end >= ADDRESS_SPACE {
		err = fmt.Errorf("%w: %08X..%09X", ErrImageRange, addr, end)
		return
	}

	if len(img.Chunks) == 0 {
		img.Lowest, img.Highest = addr, uint32(end)
	} else {
		img.Lowest = min(img.Lowest, addr)
		img.Highest = max(img.Highest, uint32(end))
	}
	img.Chunks = append(img.Chunks, Chunk{Addr: addr, Data: data})
	return
}
