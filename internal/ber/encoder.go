package ber

// BEREncoder builds BER elements into a growing buffer. Lengths are always
// emitted in the minimal definite form, so the output is also valid DER for
// the types supported here.
type BEREncoder struct {
	buf []byte
	// open holds the buffer offsets of constructed elements whose content
	// is still being written.
	open []int
}

// NewBEREncoder creates an encoder with the given initial capacity.
func NewBEREncoder(capacity int) *BEREncoder {
	if capacity <= 0 {
		capacity = 64
	}
	return &BEREncoder{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded data.
func (e *BEREncoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written.
func (e *BEREncoder) Len() int {
	return len(e.buf)
}

// Reset empties the encoder for reuse.
func (e *BEREncoder) Reset() {
	e.buf = e.buf[:0]
	e.open = e.open[:0]
}

// WriteTag writes an identifier octet sequence.
func (e *BEREncoder) WriteTag(class, constructed, number int) error {
	switch class {
	case ClassUniversal, ClassApplication, ClassContextSpecific, ClassPrivate:
	default:
		return ErrInvalidTagClass
	}
	if number < 0 {
		return ErrInvalidTagNumber
	}

	if number < 0x1F {
		e.buf = append(e.buf, byte(class|constructed|number))
		return nil
	}

	e.buf = append(e.buf, byte(class|constructed|0x1F))
	var tmp [5]byte
	i := len(tmp) - 1
	tmp[i] = byte(number & 0x7F)
	for number >>= 7; number > 0; number >>= 7 {
		i--
		tmp[i] = byte(number&0x7F) | 0x80
	}
	e.buf = append(e.buf, tmp[i:]...)
	return nil
}

// WriteLength writes a definite length in the shortest form.
func (e *BEREncoder) WriteLength(length int) error {
	if length < 0 {
		return ErrNegativeLength
	}
	e.buf = appendLength(e.buf, length)
	return nil
}

func appendLength(buf []byte, length int) []byte {
	if length <= MaxShortFormLength {
		return append(buf, byte(length))
	}
	n := 0
	for v := length; v > 0; v >>= 8 {
		n++
	}
	buf = append(buf, byte(LengthLongFormBit|n))
	for i := n - 1; i >= 0; i-- {
		buf = append(buf, byte(length>>(8*i)))
	}
	return buf
}

// WriteBoolean writes a BOOLEAN; TRUE is 0xFF.
func (e *BEREncoder) WriteBoolean(v bool) error {
	if err := e.WriteTag(ClassUniversal, TypePrimitive, TagBoolean); err != nil {
		return err
	}
	b := byte(0x00)
	if v {
		b = 0xFF
	}
	e.buf = append(e.buf, 0x01, b)
	return nil
}

// WriteInteger writes an INTEGER in minimal two's complement form.
func (e *BEREncoder) WriteInteger(v int64) error {
	return e.writeInteger(TagInteger, v)
}

// WriteEnumerated writes an ENUMERATED value.
func (e *BEREncoder) WriteEnumerated(v int64) error {
	return e.writeInteger(TagEnumerated, v)
}

func (e *BEREncoder) writeInteger(tag int, v int64) error {
	if err := e.WriteTag(ClassUniversal, TypePrimitive, tag); err != nil {
		return err
	}
	content := encodeInteger(v)
	e.buf = appendLength(e.buf, len(content))
	e.buf = append(e.buf, content...)
	return nil
}

// encodeInteger drops leading octets that only repeat the sign bit.
func encodeInteger(v int64) []byte {
	var full [8]byte
	for i := 0; i < 8; i++ {
		full[i] = byte(v >> (8 * (7 - i)))
	}
	i := 0
	for i < 7 {
		if full[i] == 0x00 && full[i+1]&0x80 == 0 {
			i++
			continue
		}
		if full[i] == 0xFF && full[i+1]&0x80 != 0 {
			i++
			continue
		}
		break
	}
	out := make([]byte, 8-i)
	copy(out, full[i:])
	return out
}

// WriteOctetString writes a primitive OCTET STRING.
func (e *BEREncoder) WriteOctetString(v []byte) error {
	if err := e.WriteTag(ClassUniversal, TypePrimitive, TagOctetString); err != nil {
		return err
	}
	e.buf = appendLength(e.buf, len(v))
	e.buf = append(e.buf, v...)
	return nil
}

// WriteNull writes a NULL.
func (e *BEREncoder) WriteNull() error {
	if err := e.WriteTag(ClassUniversal, TypePrimitive, TagNull); err != nil {
		return err
	}
	e.buf = append(e.buf, 0x00)
	return nil
}

// BeginSequence opens a SEQUENCE and returns its position, which must be
// passed to EndSequence once the content has been written.
func (e *BEREncoder) BeginSequence() int {
	pos := len(e.buf)
	e.buf = append(e.buf, byte(ClassUniversal|TypeConstructed|TagSequence))
	e.open = append(e.open, pos)
	return pos
}

// EndSequence closes the SEQUENCE opened at pos, inserting its length.
// Sequences must be closed innermost first.
func (e *BEREncoder) EndSequence(pos int) error {
	if len(e.open) == 0 || e.open[len(e.open)-1] != pos {
		return ErrUnbalanced
	}
	e.open = e.open[:len(e.open)-1]

	contentStart := pos + 1
	content := len(e.buf) - contentStart
	hdr := appendLength(nil, content)

	e.buf = append(e.buf, hdr...)
	copy(e.buf[contentStart+len(hdr):], e.buf[contentStart:contentStart+content])
	copy(e.buf[contentStart:], hdr)
	return nil
}
