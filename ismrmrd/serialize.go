package ismrmrd

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MessageID prefixes every message of the streaming protocol as a
// little-endian uint16.
type MessageID uint16

// Protocol message identifiers.
const (
	MessageHeader      MessageID = 3
	MessageClose       MessageID = 4
	MessageText        MessageID = 5
	MessageAcquisition MessageID = 1008
	MessageImage       MessageID = 1022
	MessageWaveform    MessageID = 1026
)

func (m MessageID) String() string {
	switch m {
	case MessageHeader:
		return "header"
	case MessageClose:
		return "close"
	case MessageText:
		return "text"
	case MessageAcquisition:
		return "acquisition"
	case MessageImage:
		return "image"
	case MessageWaveform:
		return "waveform"
	}
	return fmt.Sprintf("message(%d)", uint16(m))
}

func messageFor(k Kind) (MessageID, bool) {
	switch k {
	case KindAcquisition:
		return MessageAcquisition, true
	case KindImage:
		return MessageImage, true
	case KindWaveform:
		return MessageWaveform, true
	}
	return 0, false
}

// ProtocolSerializer writes headers and records as a message stream:
//
//	header       id, uint32 length, XML text
//	text         id, uint32 length, text
//	acquisition  id, header, trajectory, data
//	image        id, header, uint64 attribute length, attributes, pixels
//	waveform     id, header, data
//	close        id
//
// Output is buffered until Flush or Close.
type ProtocolSerializer struct {
	w *bufio.Writer
}

// NewProtocolSerializer returns a serializer writing to w.
func NewProtocolSerializer(w io.Writer) *ProtocolSerializer {
	return &ProtocolSerializer{w: bufio.NewWriter(w)}
}

func (s *ProtocolSerializer) writeID(id MessageID) error {
	return binary.Write(s.w, binary.LittleEndian, uint16(id))
}

func (s *ProtocolSerializer) writeString(id MessageID, text string) error {
	if uint64(len(text)) > uint64(^uint32(0)) {
		return &SizeMismatchError{Field: id.String(), Expected: uint64(^uint32(0)), Actual: uint64(len(text))}
	}
	if err := s.writeID(id); err != nil {
		return err
	}
	if err := binary.Write(s.w, binary.LittleEndian, uint32(len(text))); err != nil {
		return err
	}
	_, err := s.w.WriteString(text)
	return err
}

// WriteHeader writes the XML header blob.
func (s *ProtocolSerializer) WriteHeader(xml string) error {
	return s.writeString(MessageHeader, xml)
}

// WriteText writes a free-form text message.
func (s *ProtocolSerializer) WriteText(text string) error {
	return s.writeString(MessageText, text)
}

// WriteRecord writes an acquisition, image or waveform.
func (s *ProtocolSerializer) WriteRecord(rec Record) error {
	if rec == nil {
		return fmt.Errorf("serialize: nil record")
	}
	id, ok := messageFor(rec.Kind())
	if !ok {
		return &FormatError{Field: "kind", Msg: fmt.Sprintf("cannot serialize %s", rec.Kind())}
	}
	if err := s.writeID(id); err != nil {
		return err
	}
	if _, err := s.w.Write(rec.encodeHeader()); err != nil {
		return err
	}
	if img, ok := rec.(*Image); ok {
		if err := binary.Write(s.w, binary.LittleEndian, uint64(len(img.attributes))); err != nil {
			return err
		}
	}
	payload, _ := rec.encodePayload()
	_, err := s.w.Write(payload)
	return err
}

// Flush writes buffered messages to the underlying writer.
func (s *ProtocolSerializer) Flush() error {
	return s.w.Flush()
}

// Close writes the close message and flushes. It does not close the
// underlying writer.
func (s *ProtocolSerializer) Close() error {
	if err := s.writeID(MessageClose); err != nil {
		return err
	}
	return s.w.Flush()
}

// ProtocolDeserializer reads the message stream written by
// ProtocolSerializer.
type ProtocolDeserializer struct {
	r      *bufio.Reader
	peeked *MessageID
}

// NewProtocolDeserializer returns a deserializer reading from r.
func NewProtocolDeserializer(r io.Reader) *ProtocolDeserializer {
	return &ProtocolDeserializer{r: bufio.NewReader(r)}
}

// Peek returns the identifier of the next message without consuming it.
// It returns io.EOF at a clean end of input.
func (d *ProtocolDeserializer) Peek() (MessageID, error) {
	if d.peeked != nil {
		return *d.peeked, nil
	}
	var id uint16
	if err := binary.Read(d.r, binary.LittleEndian, &id); err != nil {
		return 0, err
	}
	m := MessageID(id)
	d.peeked = &m
	return m, nil
}

func (d *ProtocolDeserializer) next(want ...MessageID) (MessageID, error) {
	id, err := d.Peek()
	if err != nil {
		return 0, err
	}
	for _, w := range want {
		if id == w {
			d.peeked = nil
			return id, nil
		}
	}
	return id, &FormatError{Field: "message", Msg: fmt.Sprintf("unexpected %s message", id)}
}

func (d *ProtocolDeserializer) readFull(n uint64) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

func (d *ProtocolDeserializer) readString() (string, error) {
	var n uint32
	if err := binary.Read(d.r, binary.LittleEndian, &n); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	b, err := d.readFull(uint64(n))
	return string(b), err
}

// ReadHeader reads an XML header message.
func (d *ProtocolDeserializer) ReadHeader() (string, error) {
	if _, err := d.next(MessageHeader); err != nil {
		return "", err
	}
	return d.readString()
}

// ReadText reads a text message.
func (d *ProtocolDeserializer) ReadText() (string, error) {
	if _, err := d.next(MessageText); err != nil {
		return "", err
	}
	return d.readString()
}

// ReadRecord reads the next acquisition, image or waveform. It consumes a
// close message and returns io.EOF for it.
func (d *ProtocolDeserializer) ReadRecord() (Record, error) {
	id, err := d.next(MessageAcquisition, MessageImage, MessageWaveform, MessageClose)
	if err != nil {
		return nil, err
	}

	switch id {
	case MessageClose:
		return nil, io.EOF

	case MessageAcquisition:
		header, err := d.readFull(AcquisitionHeaderSize)
		if err != nil {
			return nil, err
		}
		head, err := DecodeAcquisitionHeader(header)
		if err != nil {
			return nil, err
		}
		payload, err := d.readFull(4*head.TrajectoryElements() + 8*head.DataElements())
		if err != nil {
			return nil, err
		}
		return decodeRecord(KindAcquisition, header, payload)

	case MessageImage:
		header, err := d.readFull(ImageHeaderSize)
		if err != nil {
			return nil, err
		}
		head, err := DecodeImageHeader(header)
		if err != nil {
			return nil, err
		}
		if err := head.Validate(); err != nil {
			return nil, err
		}
		var attrLen uint64
		if err := binary.Read(d.r, binary.LittleEndian, &attrLen); err != nil {
			return nil, err
		}
		if attrLen != uint64(head.AttributeStringLen) {
			return nil, &SizeMismatchError{Field: "attribute_string_len", Expected: uint64(head.AttributeStringLen), Actual: attrLen}
		}
		payload, err := d.readFull(attrLen + head.DataSize())
		if err != nil {
			return nil, err
		}
		return decodeRecord(KindImage, header, payload)

	default:
		header, err := d.readFull(WaveformHeaderSize)
		if err != nil {
			return nil, err
		}
		head, err := DecodeWaveformHeader(header)
		if err != nil {
			return nil, err
		}
		payload, err := d.readFull(4 * head.DataElements())
		if err != nil {
			return nil, err
		}
		return decodeRecord(KindWaveform, header, payload)
	}
}

// SerializeDataset writes the header of d, when it has one, then every
// record and the close message.
func SerializeDataset(d *Dataset, w io.Writer) error {
	s := NewProtocolSerializer(w)
	blob, err := d.HeaderBlob()
	switch {
	case err == nil:
		if err := s.WriteHeader(blob); err != nil {
			return err
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}
	err = d.Records(func(i uint64, rec Record) error {
		if err := s.WriteRecord(rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.Close()
}

// DeserializeDataset appends a message stream to d until the close message
// or the end of input. Header messages replace the header blob and text
// messages are logged. It returns the number of records appended.
func DeserializeDataset(r io.Reader, d *Dataset) (int, error) {
	p := NewProtocolDeserializer(r)
	n := 0
	for {
		id, err := p.Peek()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		switch id {
		case MessageHeader:
			blob, err := p.ReadHeader()
			if err != nil {
				return n, err
			}
			if err := d.SetHeaderBlob(blob); err != nil {
				return n, err
			}
		case MessageText:
			text, err := p.ReadText()
			if err != nil {
				return n, err
			}
			d.logger.Info("stream text message", "text", text)
		default:
			rec, err := p.ReadRecord()
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			if err != nil {
				return n, err
			}
			if _, err := d.AppendRecord(rec); err != nil {
				return n, err
			}
			n++
		}
	}
}
