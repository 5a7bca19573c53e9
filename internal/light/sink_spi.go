package light

import (
	"fmt"

	"echotree.klederson.com/internal/log"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// SPISink drives a WS2812 strip from an SPI MOSI line.
type SPISink struct {
	port spi.PortCloser
	dev  *nrzled.Dev
	buf  []byte
}

// OpenSPISink opens the SPI port (empty name = first available) for a strip
// of n pixels.
func OpenSPISink(portName string, n int) (*SPISink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("light: host init: %w", err)
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("light: open spi %q: %w", portName, err)
	}

	opts := nrzled.DefaultOpts
	opts.NumPixels = n
	opts.Channels = 3
	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("light: nrzled: %w", err)
	}

	log.Info("light: spi strip opened", "port", port.String(), "pixels", n)
	return &SPISink{port: port, dev: dev, buf: make([]byte, 3*n)}, nil
}

func (s *SPISink) Show(pixels []Color) error {
	for i, c := range pixels {
		if 3*i+2 >= len(s.buf) {
			break
		}
		s.buf[3*i] = c.R
		s.buf[3*i+1] = c.G
		s.buf[3*i+2] = c.B
	}
	_, err := s.dev.Write(s.buf)
	return err
}

// Close blanks the strip and releases the port.
func (s *SPISink) Close() error {
	if err := s.dev.Halt(); err != nil {
		log.Warn("light: halt strip", "err", err)
	}
	return s.port.Close()
}
