package midi

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ScanTimeout bounds port enumeration. Some backends (CoreMIDI) can hang.
const ScanTimeout = 3 * time.Second

// ErrScanTimeout is returned when the MIDI backend did not answer in time.
var ErrScanTimeout = errors.New("timed out listing MIDI ports")

// OutPorts lists MIDI output ports with a timeout.
func OutPorts(timeout time.Duration) ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		return outs, nil
	case <-time.After(timeout):
		return nil, ErrScanTimeout
	}
}

// FindOutPort returns the first output port whose name matches pattern
// (a case-insensitive regular expression). An empty pattern picks the first
// port.
func FindOutPort(pattern string, timeout time.Duration) (drivers.Out, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid port pattern %q: %w", pattern, err)
	}
	outs, err := OutPorts(timeout)
	if err != nil {
		return nil, err
	}
	for _, port := range outs {
		if re.MatchString(port.String()) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("no MIDI output port matches %q", pattern)
}
