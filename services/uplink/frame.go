package uplink

import (
	"errors"
	"io"
)

// Stream transports carry length-prefixed frames: one type byte and a
// big-endian uint16 payload length.
const (
	framePub   byte = 0x10
	frameClose byte = 0x7f
)

var errFrameTooLarge = errors.New("uplink: frame too large")

type frame struct {
	typ     byte
	payload []byte
}

func writeFrame(w io.Writer, f frame) error {
	if len(f.payload) > 0xFFFF {
		return errFrameTooLarge
	}
	hdr := []byte{f.typ, byte(len(f.payload) >> 8), byte(len(f.payload) & 0xFF)}
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if len(f.payload) > 0 {
		_, err := w.Write(f.payload)
		return err
	}
	return nil
}

func readFrame(r io.Reader) (frame, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return frame{}, err
	}
	n := int(hdr[1])<<8 | int(hdr[2])
	var buf []byte
	if n > 0 {
		buf = make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return frame{}, err
		}
	}
	return frame{typ: hdr[0], payload: buf}, nil
}

// frameLink frames envelopes onto a byte stream. The relative topic is
// dropped: the envelope already names endpoint and attribute.
type frameLink struct {
	wc io.WriteCloser
}

func newFrameLink(wc io.WriteCloser) *frameLink { return &frameLink{wc: wc} }

func (l *frameLink) Publish(topic string, payload []byte) error {
	return writeFrame(l.wc, frame{typ: framePub, payload: payload})
}

func (l *frameLink) Close() error {
	_ = writeFrame(l.wc, frame{typ: frameClose})
	return l.wc.Close()
}
