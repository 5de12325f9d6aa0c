package row

// Builder encodes one row of a Schema into a caller-supplied byte
// buffer, column by column, in schema order. A Builder is single-use:
// create one per row via NewBuilder, call SetBuffer once, append every
// column exactly once in order, then Finish to hand the buffer to its
// new owner.
type Builder struct {
	schema  *Schema
	layout  fieldLayout
	buf     []byte
	size    uint32
	cnt     int
	addrLen int
	strPos  uint32
}

// NewBuilder precomputes the fixed-field offsets, the varchar rank map,
// and the string count for schema. The returned Builder has no buffer
// yet; call SetBuffer before appending any column.
func NewBuilder(schema *Schema) *Builder {
	return &Builder{
		schema: schema,
		layout: computeLayout(schema),
	}
}

// CalTotalLength returns the smallest total row size that can hold the
// fixed area, a string-offset table, and sumStringBytes of string
// payload — trying addr_len widths 1..4 in order and picking the first
// that is internally consistent (the offset table's own width must fit
// within the total it helps produce). Returns 0 if no width suffices.
func (b *Builder) CalTotalLength(sumStringBytes uint32) uint32 {
	if b.schema.Size() == 0 {
		return 0
	}
	base := uint32(b.layout.stringStart) + sumStringBytes
	n := uint32(b.layout.stringCount)
	if base+n <= uint8Max {
		return base + n
	}
	if base+n*2 <= uint16Max {
		return base + n*2
	}
	if base+n*3 <= uint24Max {
		return base + n*3
	}
	if base+n*4 <= ^uint32(0) {
		return base + n*4
	}
	return 0
}

// SetBuffer installs buf as the row's backing storage, writes the
// header (fversion, sversion, total_size) and zeroes the null bitmap.
// It fails if buf cannot hold the fixed area plus one byte per string
// (the minimal 1-byte-wide offset table).
func (b *Builder) SetBuffer(buf []byte) error {
	size := uint32(len(buf))
	if size == 0 || int(size) < b.layout.stringStart+b.layout.stringCount {
		return ErrBufferTooSmall
	}
	b.buf = buf
	b.size = size
	buf[0] = fVersion
	buf[1] = sVersion
	writeTotalSize(buf, size)
	bm := bitmapSize(b.schema.Size())
	for i := 0; i < bm; i++ {
		buf[headerLength+i] = 0
	}
	b.cnt = 0
	b.addrLen = addrLenFor(size)
	b.strPos = uint32(b.layout.stringStart) + uint32(b.addrLen*b.layout.stringCount)
	return nil
}

func (b *Builder) check(t ColumnType) error {
	if b.cnt >= b.schema.Size() {
		return ErrColumnOverflow
	}
	if b.schema.Get(b.cnt).Type != t {
		return ErrTypeMismatch
	}
	return nil
}

func (b *Builder) writeStringSlot(rank int, v uint32) {
	pos := b.layout.stringStart + b.addrLen*rank
	writeOffset(b.buf, pos, b.addrLen, v)
}

// AppendNull marks the current column NULL and advances the cursor. For
// a varchar column it stores the current heap write cursor in that
// column's offset-table slot, so that "length = next offset - this
// offset" yields zero uniformly, with no NULL-aware branch in readers.
func (b *Builder) AppendNull() error {
	if b.cnt >= b.schema.Size() {
		return ErrColumnOverflow
	}
	bytePos := headerLength + (b.cnt >> 3)
	b.buf[bytePos] |= 1 << uint(b.cnt&0x07)
	col := b.schema.Get(b.cnt)
	if col.Type == Varchar {
		b.writeStringSlot(b.layout.offsets[b.cnt], b.strPos)
	}
	b.cnt++
	return nil
}

// AppendBool writes a bool value at the current column's fixed offset.
func (b *Builder) AppendBool(v bool) error {
	if err := b.check(Bool); err != nil {
		return err
	}
	if v {
		b.buf[b.layout.offsets[b.cnt]] = 1
	} else {
		b.buf[b.layout.offsets[b.cnt]] = 0
	}
	b.cnt++
	return nil
}

// AppendInt16 writes an i16 value at the current column's fixed offset.
func (b *Builder) AppendInt16(v int16) error {
	if err := b.check(Int16); err != nil {
		return err
	}
	off := b.layout.offsets[b.cnt]
	putU16(b.buf[off:], uint16(v))
	b.cnt++
	return nil
}

// AppendInt32 writes an i32 value at the current column's fixed offset.
func (b *Builder) AppendInt32(v int32) error {
	if err := b.check(Int32); err != nil {
		return err
	}
	off := b.layout.offsets[b.cnt]
	putU32(b.buf[off:], uint32(v))
	b.cnt++
	return nil
}

// AppendInt64 writes an i64 value at the current column's fixed offset.
func (b *Builder) AppendInt64(v int64) error {
	if err := b.check(Int64); err != nil {
		return err
	}
	off := b.layout.offsets[b.cnt]
	putU64(b.buf[off:], uint64(v))
	b.cnt++
	return nil
}

// AppendTimestamp writes a timestamp (i64 epoch-ish value) at the
// current column's fixed offset.
func (b *Builder) AppendTimestamp(v int64) error {
	if err := b.check(Timestamp); err != nil {
		return err
	}
	off := b.layout.offsets[b.cnt]
	putU64(b.buf[off:], uint64(v))
	b.cnt++
	return nil
}

// AppendDate writes a date (day count, stored widened to the 8-byte
// timestamp-width slot per the row format's fixed-width rule) at the
// current column's fixed offset.
func (b *Builder) AppendDate(days int32) error {
	if err := b.check(Date); err != nil {
		return err
	}
	off := b.layout.offsets[b.cnt]
	putU64(b.buf[off:], uint64(int64(days)))
	b.cnt++
	return nil
}

// AppendFloat32 writes an f32 value at the current column's fixed offset.
func (b *Builder) AppendFloat32(v float32) error {
	if err := b.check(Float32); err != nil {
		return err
	}
	off := b.layout.offsets[b.cnt]
	putU32(b.buf[off:], float32bits(v))
	b.cnt++
	return nil
}

// AppendFloat64 writes an f64 value at the current column's fixed offset.
func (b *Builder) AppendFloat64(v float64) error {
	if err := b.check(Float64); err != nil {
		return err
	}
	off := b.layout.offsets[b.cnt]
	putU64(b.buf[off:], float64bits(v))
	b.cnt++
	return nil
}

// AppendString writes the current heap cursor into this varchar
// column's offset-table slot, copies the string bytes into the heap at
// that cursor, and advances the cursor by len(s).
func (b *Builder) AppendString(s []byte) error {
	if err := b.check(Varchar); err != nil {
		return err
	}
	if b.strPos+uint32(len(s)) > b.size {
		return ErrStringOverflow
	}
	b.writeStringSlot(b.layout.offsets[b.cnt], b.strPos)
	if len(s) != 0 {
		copy(b.buf[b.strPos:], s)
	}
	b.strPos += uint32(len(s))
	b.cnt++
	return nil
}

// Finish returns the completed row buffer, now owned by the caller. It
// fails if fewer columns were appended than the schema declares.
func (b *Builder) Finish() ([]byte, error) {
	if b.cnt != b.schema.Size() {
		return nil, ErrColumnOverflow
	}
	return b.buf, nil
}
