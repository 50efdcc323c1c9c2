package signal

import (
	"bufio"
	"context"

	"go.bug.st/serial"

	"github.com/ktkachuk/teps/internal/monitoring"
)

// SerialSource reads sensor records from the serial bridge that taps the
// machine controller. Records arrive as newline-delimited "torque[,feed]"
// lines at the controller's sample rate.
type SerialSource struct {
	port     serial.Port
	samples  chan Sample
	commands chan string
}

// NewSerialSource opens the named serial device with the bridge's fixed
// line settings.
func NewSerialSource(portName string) (*SerialSource, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	return &SerialSource{
		port:     port,
		samples:  make(chan Sample),
		commands: make(chan string),
	}, nil
}

// Samples returns the channel of parsed records.
func (s *SerialSource) Samples() <-chan Sample { return s.samples }

// SendCommand queues a command line for the bridge (e.g. a rate change).
func (s *SerialSource) SendCommand(command string) {
	s.commands <- command
}

// Close closes the serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}

// Monitor reads from the serial port and pumps parsed records to the samples
// channel, interleaving queued command writes, until the context is
// cancelled or the port closes.
func (s *SerialSource) Monitor(ctx context.Context) error {
	defer s.Close()
	defer close(s.samples)
	scan := bufio.NewScanner(s.port)

	for {
		select {
		case <-ctx.Done():
			return nil
		case command := <-s.commands:
			if _, err := s.port.Write([]byte(command + "\n")); err != nil {
				monitoring.Logf("error writing command to port: %v", err)
			}
		default:
			if !scan.Scan() {
				return scan.Err()
			}
			sample, err := ParseLine(scan.Text())
			if err != nil {
				monitoring.Logf("skipping malformed serial record: %v", err)
				continue
			}
			select {
			case s.samples <- sample:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
