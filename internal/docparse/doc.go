package docparse

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
)

// docBlocks decodes a legacy binary .doc file. The OLE2 container is
// walked for the WordDocument and table streams; text is recovered
// through the piece table when present, falling back to the raw fcMin
// window. One block per line.
func docBlocks(data []byte) (blocks []Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse doc: %v", r)
		}
	}()

	cf, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open doc container: %w", err)
	}

	var wordDoc, table0, table1 []byte
	for {
		entry, nextErr := cf.Next()
		if nextErr != nil {
			break
		}
		switch entry.Name {
		case "WordDocument":
			wordDoc, _ = io.ReadAll(entry)
		case "0Table":
			table0, _ = io.ReadAll(entry)
		case "1Table":
			table1, _ = io.ReadAll(entry)
		}
	}
	if len(wordDoc) < 0x20 {
		return nil, fmt.Errorf("WordDocument stream missing: %w", ErrDecode)
	}

	// FIB flag bit 9 selects which table stream carries the CLX.
	table := table0
	if flags := binary.LittleEndian.Uint16(wordDoc[0x0A:0x0C]); (flags>>9)&1 == 1 {
		table = table1
	}

	text := docPieceTableText(wordDoc, table)
	if text == "" {
		text = docDirectText(wordDoc)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		blocks = append(blocks, Block{Text: line, Pos: len(blocks)})
	}
	return blocks, nil
}

// docPieceTableText walks the CLX piece table in the table stream. Each
// piece records its character window and whether it is stored as UTF-16
// or compressed ANSI.
func docPieceTableText(wordDoc, table []byte) string {
	if len(wordDoc) < 0x01AA || len(table) == 0 {
		return ""
	}
	fcClx := binary.LittleEndian.Uint32(wordDoc[0x01A2:0x01A6])
	lcbClx := binary.LittleEndian.Uint32(wordDoc[0x01A6:0x01AA])
	if lcbClx == 0 || int(fcClx)+int(lcbClx) > len(table) {
		return ""
	}
	clx := table[fcClx : fcClx+lcbClx]

	// Skip Prc property entries ahead of the Pcdt marker.
	pos := 0
	for pos < len(clx) {
		if clx[pos] == 0x01 {
			if pos+3 > len(clx) {
				return ""
			}
			pos += 3 + int(binary.LittleEndian.Uint16(clx[pos+1:pos+3]))
			continue
		}
		if clx[pos] == 0x02 {
			pos++
			break
		}
		return ""
	}
	if pos+4 > len(clx) {
		return ""
	}
	lcb := int(binary.LittleEndian.Uint32(clx[pos : pos+4]))
	pos += 4
	if lcb < 12 || pos+lcb > len(clx) {
		return ""
	}
	plc := clx[pos : pos+lcb]
	n := (lcb - 4) / 12
	if n <= 0 || (n+1)*4+n*8 > lcb {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < n; i++ {
		cpStart := binary.LittleEndian.Uint32(plc[i*4 : i*4+4])
		cpEnd := binary.LittleEndian.Uint32(plc[(i+1)*4 : (i+1)*4+4])
		if cpEnd <= cpStart || cpEnd-cpStart > 1<<20 {
			continue
		}
		pcd := (n+1)*4 + i*8
		fcRaw := binary.LittleEndian.Uint32(plc[pcd+2 : pcd+6])
		fc := fcRaw & 0x3FFFFFFF
		count := cpEnd - cpStart

		if fcRaw&0x40000000 == 0 {
			// UTF-16LE piece.
			if int(fc)+int(count)*2 > len(wordDoc) {
				continue
			}
			chunk := wordDoc[fc : fc+count*2]
			u16 := make([]uint16, count)
			for j := uint32(0); j < count; j++ {
				u16[j] = binary.LittleEndian.Uint16(chunk[j*2 : j*2+2])
			}
			writeDocRunes(&sb, utf16.Decode(u16))
			continue
		}
		// Compressed ANSI piece; fc counts half-bytes.
		off := fc / 2
		if int(off)+int(count) > len(wordDoc) {
			continue
		}
		rs := make([]rune, 0, count)
		for _, c := range wordDoc[off : off+count] {
			rs = append(rs, rune(c))
		}
		writeDocRunes(&sb, rs)
	}
	return sb.String()
}

// docDirectText slices the fcMin..fcMac text window straight out of the
// WordDocument stream, the layout simple single-piece documents use.
func docDirectText(wordDoc []byte) string {
	fcMin := binary.LittleEndian.Uint32(wordDoc[0x18:0x1C])
	fcMac := binary.LittleEndian.Uint32(wordDoc[0x1C:0x20])
	if fcMac <= fcMin || int(fcMac) > len(wordDoc) {
		return ""
	}
	window := wordDoc[fcMin:fcMac]

	// A UTF-16 window shows NULs in the high bytes of ASCII text.
	nuls := bytes.Count(window, []byte{0})
	if nuls*3 > len(window) && len(window)%2 == 0 {
		u16 := make([]uint16, len(window)/2)
		for i := range u16 {
			u16[i] = binary.LittleEndian.Uint16(window[i*2 : i*2+2])
		}
		var sb strings.Builder
		writeDocRunes(&sb, utf16.Decode(u16))
		return sb.String()
	}
	rs := make([]rune, 0, len(window))
	for _, c := range window {
		rs = append(rs, rune(c))
	}
	var sb strings.Builder
	writeDocRunes(&sb, rs)
	return sb.String()
}

func writeDocRunes(sb *strings.Builder, rs []rune) {
	for _, r := range rs {
		switch {
		case r == 0x0D || r == 0x0B:
			sb.WriteByte('\n')
		case r == 0x07:
			sb.WriteByte('\t')
		case r >= 0x20 || r == 0x09:
			sb.WriteRune(r)
		}
	}
}
