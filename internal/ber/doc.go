// Package ber implements the subset of ASN.1 BER encoding (ITU-T X.690)
// used by LDAP control values.
//
// # Decoding
//
//	d := ber.NewBERDecoder(value)
//	seq, err := d.ReadSequenceContents()
//	size, err := seq.ReadInteger()
//	cookie, err := seq.ReadOctetString()
//
// # Encoding
//
// Constructed elements are written between BeginSequence and EndSequence;
// the encoder fills in the length when the sequence is closed:
//
//	e := ber.NewBEREncoder(32)
//	pos := e.BeginSequence()
//	e.WriteInteger(100)
//	e.WriteOctetString([]byte("0"))
//	err := e.EndSequence(pos)
//	value := e.Bytes()
//
// Only definite lengths are produced or accepted. Errors from the decoder
// are *DecodeError or *TagMismatchError values that unwrap to the package
// sentinels (ErrUnexpectedEOF, ErrTagMismatch, ...).
package ber
