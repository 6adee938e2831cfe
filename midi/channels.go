package midi

import "fmt"

// DrumChannel is the General MIDI percussion channel (channel 10, zero based).
const DrumChannel uint8 = 9

// MaxChannels is the number of channels in a MIDI stream.
const MaxChannels = 16

// ChannelMap assigns a MIDI channel to each of n grid channels. The
// percussion channel (if percussion >= 0) goes to DrumChannel, melodic
// channels take the remaining numbers in order.
func ChannelMap(n, percussion int) ([]uint8, error) {
	melodic := n
	if percussion >= 0 {
		melodic--
	}
	if n < 1 || melodic > MaxChannels-1 || n > MaxChannels {
		return nil, fmt.Errorf("cannot map %d channels onto %d MIDI channels", n, MaxChannels)
	}
	out := make([]uint8, n)
	next := uint8(0)
	for i := range out {
		if i == percussion {
			out[i] = DrumChannel
			continue
		}
		if next == DrumChannel {
			next++
		}
		out[i] = next
		next++
	}
	return out, nil
}
