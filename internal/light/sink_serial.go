package light

import (
	"fmt"

	"echotree.klederson.com/internal/log"
	"go.bug.st/serial"
)

const (
	CmdShowFrame = 0x20
	SOF0         = 0xAA
	SOF1         = 0x55
)

// EncodeFrame builds the on-wire representation of a full strip for the
// strip controller:
//
//	[SOF0][SOF1][LEN hi][LEN lo][CMD][r0 g0 b0 ... rN gN bN][CKS]
//
// LEN counts CMD plus payload bytes. CKS is the XOR of LEN, CMD and payload.
func EncodeFrame(pixels []Color) []byte {
	length := 1 + 3*len(pixels)
	out := make([]byte, 0, 4+length+1)
	out = append(out, SOF0, SOF1, byte(length>>8), byte(length), CmdShowFrame)

	cks := byte(length>>8) ^ byte(length) ^ CmdShowFrame
	for _, c := range pixels {
		out = append(out, c.R, c.G, c.B)
		cks ^= c.R ^ c.G ^ c.B
	}
	return append(out, cks)
}

// SerialSink sends frames to a microcontroller that drives the strip.
type SerialSink struct {
	port serial.Port
	name string
}

// OpenSerialSink opens the named serial device at the given baud rate.
func OpenSerialSink(name string, baud int) (*SerialSink, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("light: open serial %s: %w", name, err)
	}
	log.Info("light: serial strip opened", "device", name, "baud", baud)
	return &SerialSink{port: p, name: name}, nil
}

// Show writes one encoded frame; it returns once the bytes are handed to the
// driver, which bounds the frame rate by the link speed.
func (s *SerialSink) Show(pixels []Color) error {
	data := EncodeFrame(pixels)
	n, err := s.port.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("light: short serial write %d/%d", n, len(data))
	}
	return s.port.Drain()
}

func (s *SerialSink) Close() error {
	log.Info("light: closing serial strip", "device", s.name)
	return s.port.Close()
}
