package ber

// BERDecoder reads BER elements sequentially from a byte slice.
type BERDecoder struct {
	data   []byte
	offset int
	// base is the offset of data[0] within the outermost input, so nested
	// decoders report positions relative to the original buffer.
	base int
}

// NewBERDecoder creates a decoder over data.
func NewBERDecoder(data []byte) *BERDecoder {
	return &BERDecoder{data: data}
}

// Offset returns the current read position.
func (d *BERDecoder) Offset() int {
	return d.base + d.offset
}

// Remaining returns the number of unread bytes.
func (d *BERDecoder) Remaining() int {
	return len(d.data) - d.offset
}

// ReadTag reads an identifier octet sequence and returns its class,
// constructed bit and tag number.
func (d *BERDecoder) ReadTag() (class, constructed, number int, err error) {
	start := d.Offset()
	if d.offset >= len(d.data) {
		return 0, 0, 0, newDecodeError(start, "cannot read tag", ErrUnexpectedEOF)
	}

	b := d.data[d.offset]
	d.offset++

	class = int(b & 0xC0)
	constructed = int(b & 0x20)
	number = int(b & 0x1F)
	if number != 0x1F {
		return class, constructed, number, nil
	}

	// High tag number form: base-128, high bit set on all but the last octet.
	number = 0
	for {
		if d.offset >= len(d.data) {
			return 0, 0, 0, newDecodeError(start, "truncated tag number", ErrUnexpectedEOF)
		}
		b = d.data[d.offset]
		d.offset++
		if number > 1<<24 {
			return 0, 0, 0, newDecodeError(start, "tag number overflow", nil)
		}
		number = number<<7 | int(b&0x7F)
		if b&0x80 == 0 {
			return class, constructed, number, nil
		}
	}
}

// PeekTag returns the next tag without consuming it.
func (d *BERDecoder) PeekTag() (class, constructed, number int, err error) {
	saved := d.offset
	class, constructed, number, err = d.ReadTag()
	d.offset = saved
	return class, constructed, number, err
}

// ReadLength reads a definite length and checks that the content fits in
// the remaining input.
func (d *BERDecoder) ReadLength() (int, error) {
	start := d.Offset()
	if d.offset >= len(d.data) {
		return 0, newDecodeError(start, "cannot read length", ErrUnexpectedEOF)
	}

	first := d.data[d.offset]
	d.offset++

	length := 0
	if first&LengthLongFormBit == 0 {
		length = int(first)
	} else {
		n := int(first &^ LengthLongFormBit)
		if n == 0 {
			return 0, newDecodeError(start, "indefinite length", ErrIndefiniteLength)
		}
		if n > maxLengthOctets {
			return 0, newDecodeError(start, "length has too many octets", ErrInvalidLength)
		}
		if d.offset+n > len(d.data) {
			return 0, newDecodeError(start, "truncated length", ErrUnexpectedEOF)
		}
		for i := 0; i < n; i++ {
			length = length<<8 | int(d.data[d.offset])
			d.offset++
		}
		if length < 0 {
			return 0, newDecodeError(start, "length overflow", ErrInvalidLength)
		}
	}

	if length > d.Remaining() {
		return 0, newDecodeError(start, "content exceeds input", ErrUnexpectedEOF)
	}
	return length, nil
}

// expect reads a tag and length, failing unless the tag matches.
func (d *BERDecoder) expect(class, number int) (constructed, length int, err error) {
	start := d.Offset()
	gotClass, constructed, gotNumber, err := d.ReadTag()
	if err != nil {
		return 0, 0, err
	}
	if gotClass != class || gotNumber != number {
		return 0, 0, &TagMismatchError{
			Offset:         start,
			ExpectedClass:  class,
			ExpectedNumber: number,
			ActualClass:    gotClass,
			ActualNumber:   gotNumber,
		}
	}
	length, err = d.ReadLength()
	if err != nil {
		return 0, 0, err
	}
	return constructed, length, nil
}

// ReadBoolean reads a BOOLEAN. Any non-zero content octet is TRUE.
func (d *BERDecoder) ReadBoolean() (bool, error) {
	start := d.Offset()
	_, length, err := d.expect(ClassUniversal, TagBoolean)
	if err != nil {
		return false, err
	}
	if length != 1 {
		return false, newDecodeError(start, "boolean must have length 1", ErrInvalidBoolean)
	}
	v := d.data[d.offset]
	d.offset++
	return v != 0, nil
}

// ReadInteger reads a two's complement INTEGER into an int64.
func (d *BERDecoder) ReadInteger() (int64, error) {
	return d.readInteger(TagInteger)
}

// ReadEnumerated reads an ENUMERATED value.
func (d *BERDecoder) ReadEnumerated() (int64, error) {
	return d.readInteger(TagEnumerated)
}

func (d *BERDecoder) readInteger(tag int) (int64, error) {
	start := d.Offset()
	_, length, err := d.expect(ClassUniversal, tag)
	if err != nil {
		return 0, err
	}
	if length == 0 || length > 8 {
		return 0, newDecodeError(start, "integer length out of range", ErrInvalidInteger)
	}

	content := d.data[d.offset : d.offset+length]
	d.offset += length

	var v int64
	if content[0]&0x80 != 0 {
		v = -1
	}
	for _, b := range content {
		v = v<<8 | int64(b)
	}
	return v, nil
}

// ReadOctetString reads a primitive OCTET STRING and returns a copy of its
// content.
func (d *BERDecoder) ReadOctetString() ([]byte, error) {
	start := d.Offset()
	constructed, length, err := d.expect(ClassUniversal, TagOctetString)
	if err != nil {
		return nil, err
	}
	if constructed != TypePrimitive {
		return nil, newDecodeError(start, "constructed octet string not supported", nil)
	}
	v := make([]byte, length)
	copy(v, d.data[d.offset:d.offset+length])
	d.offset += length
	return v, nil
}

// ExpectSequence reads a SEQUENCE header and returns the content length.
func (d *BERDecoder) ExpectSequence() (int, error) {
	start := d.Offset()
	constructed, length, err := d.expect(ClassUniversal, TagSequence)
	if err != nil {
		return 0, err
	}
	if constructed != TypeConstructed {
		return 0, newDecodeError(start, "sequence must be constructed", ErrTagMismatch)
	}
	return length, nil
}

// ReadSequenceContents reads a SEQUENCE and returns a decoder limited to
// its content. The parent decoder is advanced past the whole element.
func (d *BERDecoder) ReadSequenceContents() (*BERDecoder, error) {
	length, err := d.ExpectSequence()
	if err != nil {
		return nil, err
	}
	sub := &BERDecoder{
		data: d.data[d.offset : d.offset+length],
		base: d.Offset(),
	}
	d.offset += length
	return sub, nil
}

// Skip consumes the next element whatever its tag.
func (d *BERDecoder) Skip() error {
	if _, _, _, err := d.ReadTag(); err != nil {
		return err
	}
	length, err := d.ReadLength()
	if err != nil {
		return err
	}
	d.offset += length
	return nil
}

// Done reports ErrTrailingData when unread bytes remain.
func (d *BERDecoder) Done() error {
	if d.Remaining() != 0 {
		return newDecodeError(d.Offset(), "unexpected bytes", ErrTrailingData)
	}
	return nil
}
