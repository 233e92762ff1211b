package ber

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriteInteger(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  []byte
	}{
		{"zero", 0, []byte{0x02, 0x01, 0x00}},
		{"small positive", 100, []byte{0x02, 0x01, 0x64}},
		{"needs sign octet", 128, []byte{0x02, 0x02, 0x00, 0x80}},
		{"two octets", 1000, []byte{0x02, 0x02, 0x03, 0xE8}},
		{"minus one", -1, []byte{0x02, 0x01, 0xFF}},
		{"minus 128", -128, []byte{0x02, 0x01, 0x80}},
		{"minus 129", -129, []byte{0x02, 0x02, 0xFF, 0x7F}},
		{"max int32", 2147483647, []byte{0x02, 0x04, 0x7F, 0xFF, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewBEREncoder(0)
			if err := e.WriteInteger(tt.value); err != nil {
				t.Fatalf("WriteInteger(%d) error: %v", tt.value, err)
			}
			if !bytes.Equal(e.Bytes(), tt.want) {
				t.Errorf("WriteInteger(%d) = %x, want %x", tt.value, e.Bytes(), tt.want)
			}

			got, err := NewBERDecoder(e.Bytes()).ReadInteger()
			if err != nil {
				t.Fatalf("ReadInteger error: %v", err)
			}
			if got != tt.value {
				t.Errorf("ReadInteger = %d, want %d", got, tt.value)
			}
		})
	}
}

func TestSequenceEncoding(t *testing.T) {
	e := NewBEREncoder(16)
	pos := e.BeginSequence()
	if err := e.WriteInteger(100); err != nil {
		t.Fatal(err)
	}
	if err := e.WriteOctetString(nil); err != nil {
		t.Fatal(err)
	}
	if err := e.EndSequence(pos); err != nil {
		t.Fatalf("EndSequence error: %v", err)
	}

	want := []byte{0x30, 0x05, 0x02, 0x01, 0x64, 0x04, 0x00}
	if !bytes.Equal(e.Bytes(), want) {
		t.Errorf("sequence = %x, want %x", e.Bytes(), want)
	}
}

func TestSequenceLongFormLength(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, 300)

	e := NewBEREncoder(0)
	pos := e.BeginSequence()
	if err := e.WriteOctetString(payload); err != nil {
		t.Fatal(err)
	}
	if err := e.EndSequence(pos); err != nil {
		t.Fatal(err)
	}

	// 0x30 0x82 0x01 0x30 | 0x04 0x82 0x01 0x2C | payload
	out := e.Bytes()
	if len(out) != 4+4+300 {
		t.Fatalf("encoded length = %d, want %d", len(out), 308)
	}
	if !bytes.Equal(out[:4], []byte{0x30, 0x82, 0x01, 0x30}) {
		t.Errorf("sequence header = %x", out[:4])
	}

	seq, err := NewBERDecoder(out).ReadSequenceContents()
	if err != nil {
		t.Fatalf("ReadSequenceContents error: %v", err)
	}
	got, err := seq.ReadOctetString()
	if err != nil {
		t.Fatalf("ReadOctetString error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("payload did not survive round trip")
	}
	if err := seq.Done(); err != nil {
		t.Errorf("Done() = %v, want nil", err)
	}
}

func TestNestedSequencesMustCloseInOrder(t *testing.T) {
	e := NewBEREncoder(0)
	outer := e.BeginSequence()
	_ = e.BeginSequence()
	if err := e.EndSequence(outer); !errors.Is(err, ErrUnbalanced) {
		t.Errorf("EndSequence(outer) = %v, want ErrUnbalanced", err)
	}
}

func TestDecoderErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		read    func(d *BERDecoder) error
		wantErr error
	}{
		{
			name:    "empty input",
			data:    nil,
			read:    func(d *BERDecoder) error { _, err := d.ReadInteger(); return err },
			wantErr: ErrUnexpectedEOF,
		},
		{
			name:    "wrong tag",
			data:    []byte{0x04, 0x01, 0x00},
			read:    func(d *BERDecoder) error { _, err := d.ReadInteger(); return err },
			wantErr: ErrTagMismatch,
		},
		{
			name:    "indefinite length",
			data:    []byte{0x30, 0x80, 0x00, 0x00},
			read:    func(d *BERDecoder) error { _, err := d.ExpectSequence(); return err },
			wantErr: ErrIndefiniteLength,
		},
		{
			name:    "length beyond input",
			data:    []byte{0x04, 0x05, 'a', 'b'},
			read:    func(d *BERDecoder) error { _, err := d.ReadOctetString(); return err },
			wantErr: ErrUnexpectedEOF,
		},
		{
			name:    "empty integer",
			data:    []byte{0x02, 0x00},
			read:    func(d *BERDecoder) error { _, err := d.ReadInteger(); return err },
			wantErr: ErrInvalidInteger,
		},
		{
			name:    "oversized integer",
			data:    []byte{0x02, 0x09, 1, 2, 3, 4, 5, 6, 7, 8, 9},
			read:    func(d *BERDecoder) error { _, err := d.ReadInteger(); return err },
			wantErr: ErrInvalidInteger,
		},
		{
			name:    "boolean length",
			data:    []byte{0x01, 0x02, 0x00, 0x00},
			read:    func(d *BERDecoder) error { _, err := d.ReadBoolean(); return err },
			wantErr: ErrInvalidBoolean,
		},
		{
			name:    "too many length octets",
			data:    []byte{0x04, 0x85, 0, 0, 0, 0, 1},
			read:    func(d *BERDecoder) error { _, err := d.ReadOctetString(); return err },
			wantErr: ErrInvalidLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewBERDecoder(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeErrorOffsetIsAbsolute(t *testing.T) {
	// SEQUENCE { INTEGER 1, OCTET STRING (tag mismatch: BOOLEAN) }
	data := []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x01, 0x01, 0xFF}
	seq, err := NewBERDecoder(data).ReadSequenceContents()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := seq.ReadInteger(); err != nil {
		t.Fatal(err)
	}

	_, err = seq.ReadOctetString()
	var mismatch *TagMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want *TagMismatchError", err)
	}
	if mismatch.Offset != 5 {
		t.Errorf("Offset = %d, want 5", mismatch.Offset)
	}
}

func TestBooleanAndTags(t *testing.T) {
	e := NewBEREncoder(0)
	if err := e.WriteBoolean(true); err != nil {
		t.Fatal(err)
	}
	if err := e.WriteTag(ClassContextSpecific, TypePrimitive, 40); err != nil {
		t.Fatal(err)
	}
	if err := e.WriteTag(0x10, TypePrimitive, 1); !errors.Is(err, ErrInvalidTagClass) {
		t.Errorf("WriteTag(bad class) = %v, want ErrInvalidTagClass", err)
	}

	d := NewBERDecoder(e.Bytes())
	v, err := d.ReadBoolean()
	if err != nil || !v {
		t.Fatalf("ReadBoolean = %v, %v", v, err)
	}
	class, _, number, err := d.ReadTag()
	if err != nil {
		t.Fatal(err)
	}
	if class != ClassContextSpecific || number != 40 {
		t.Errorf("ReadTag = class %#x number %d, want %#x 40", class, number, ClassContextSpecific)
	}
}
