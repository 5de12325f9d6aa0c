package row

import "math"

const (
	// versionLength is the byte width of the fver+sver pair at the
	// start of every row.
	versionLength = 2
	// sizeLength is the byte width of the total_size field.
	sizeLength = 4
	// headerLength is versionLength+sizeLength. Note this is 6, not the
	// 7 a literal reading of "fversion:u8, sversion:u8, total_size:u32"
	// might suggest; total_size starts immediately at offset
	// versionLength with no padding, matching the reference codec.
	headerLength = versionLength + sizeLength

	fVersion = 1
	sVersion = 1

	uint8Max  = 1<<8 - 1
	uint16Max = 1<<16 - 1
	uint24Max = 1<<24 - 1
)

// bitmapSize returns ceil(n/8), the byte width of the null bitmap for n
// columns.
func bitmapSize(n int) int {
	return (n + 7) / 8
}

// addrLenFor returns the smallest string-offset width (1, 2, 3 or 4
// bytes) able to address a row of totalSize bytes, or 0 if totalSize
// overflows even a 4-byte offset.
func addrLenFor(totalSize uint32) int {
	switch {
	case totalSize <= uint8Max:
		return 1
	case totalSize <= uint16Max:
		return 2
	case totalSize <= uint24Max:
		return 3
	default:
		return 4
	}
}

// writeOffset writes v into the addrLen-byte slot at buf[pos:]. The
// 3-byte case is the only big-endian one: [hi, mid, lo]; the 1/2/4-byte
// cases are native little-endian, per the bit-exact row format.
func writeOffset(buf []byte, pos int, addrLen int, v uint32) {
	switch addrLen {
	case 1:
		buf[pos] = byte(v)
	case 2:
		buf[pos] = byte(v)
		buf[pos+1] = byte(v >> 8)
	case 3:
		buf[pos] = byte(v >> 16)
		buf[pos+1] = byte(v >> 8)
		buf[pos+2] = byte(v)
	default:
		buf[pos] = byte(v)
		buf[pos+1] = byte(v >> 8)
		buf[pos+2] = byte(v >> 16)
		buf[pos+3] = byte(v >> 24)
	}
}

// readOffset is the inverse of writeOffset.
func readOffset(buf []byte, pos int, addrLen int) uint32 {
	switch addrLen {
	case 1:
		return uint32(buf[pos])
	case 2:
		return uint32(buf[pos]) | uint32(buf[pos+1])<<8
	case 3:
		return uint32(buf[pos+2]) | uint32(buf[pos+1])<<8 | uint32(buf[pos])<<16
	default:
		return uint32(buf[pos]) | uint32(buf[pos+1])<<8 | uint32(buf[pos+2])<<16 | uint32(buf[pos+3])<<24
	}
}

func readTotalSize(buf []byte) uint32 {
	return uint32(buf[versionLength]) | uint32(buf[versionLength+1])<<8 |
		uint32(buf[versionLength+2])<<16 | uint32(buf[versionLength+3])<<24
}

func writeTotalSize(buf []byte, v uint32) {
	buf[versionLength] = byte(v)
	buf[versionLength+1] = byte(v >> 8)
	buf[versionLength+2] = byte(v >> 16)
	buf[versionLength+3] = byte(v >> 24)
}

// fieldLayout precomputes, per column, either its fixed byte offset
// (non-varchar) or its string rank (varchar, 0-based index among
// varchar columns). stringStart is the byte offset at which the fixed
// field area ends and the string-offset table begins.
type fieldLayout struct {
	offsets     []int // per-column: fixed offset, or string rank for varchar
	stringCount int
	stringStart int
}

// putU16/putU32/putU64 write native little-endian fixed-width column
// values; readU16/readU32/readU64 are their inverses.
func putU16(buf []byte, v uint16) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
}

func readU16(buf []byte) uint16 {
	return uint16(buf[0]) | uint16(buf[1])<<8
}

func putU32(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

func readU32(buf []byte) uint32 {
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}

func putU64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * uint(i)))
	}
}

func readU64(buf []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(buf[i]) << (8 * uint(i))
	}
	return v
}

func float32bits(f float32) uint32  { return math.Float32bits(f) }
func float32frombits(b uint32) float32 { return math.Float32frombits(b) }
func float64bits(f float64) uint64  { return math.Float64bits(f) }
func float64frombits(b uint64) float64 { return math.Float64frombits(b) }

func computeLayout(schema *Schema) fieldLayout {
	layout := fieldLayout{offsets: make([]int, schema.Size())}
	cursor := headerLength + bitmapSize(schema.Size())
	stringRank := 0
	for i := 0; i < schema.Size(); i++ {
		c := schema.Get(i)
		if c.Type == Varchar {
			layout.offsets[i] = stringRank
			stringRank++
			continue
		}
		w, _ := fixedWidth(c.Type)
		layout.offsets[i] = cursor
		cursor += w
	}
	layout.stringCount = stringRank
	layout.stringStart = cursor
	return layout
}
