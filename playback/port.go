package playback

import (
	"context"
	"fmt"
	"sort"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/smf"

	"termseq/debug"
)

// PortSynth streams a MIDI file to an output port, for users with a hardware
// or software synth listening on a MIDI port instead of a synth executable.
type PortSynth struct {
	Port drivers.Out
}

type key struct {
	ch, note uint8
}

// timedMessage is a channel message at an offset from the start of playback.
type timedMessage struct {
	At  time.Duration
	Msg gomidi.Message
}

// Play sends every channel message of the file to the port in real time.
// On cancellation, notes that are still held get a note-off.
func (p *PortSynth) Play(ctx context.Context, path string) error {
	if p.Port == nil {
		return fmt.Errorf("no MIDI output port")
	}
	mf, err := smf.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	plan, err := schedule(mf)
	if err != nil {
		return err
	}
	send, err := gomidi.SendTo(p.Port)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.Port, err)
	}
	debug.Log("port", "playing %d messages on %s", len(plan), p.Port)
	return perform(ctx, plan, send, sleep)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func perform(ctx context.Context, plan []timedMessage, send func(gomidi.Message) error, wait func(context.Context, time.Duration) error) error {
	held := map[key]bool{}
	release := func() {
		for k := range held {
			if err := send(gomidi.NoteOff(k.ch, k.note)); err != nil {
				debug.Error("port", fmt.Errorf("release ch%d note %d: %w", k.ch, k.note, err))
			}
		}
	}

	var now time.Duration
	for _, tm := range plan {
		if err := wait(ctx, tm.At-now); err != nil {
			release()
			return err
		}
		now = tm.At

		var ch, note, vel uint8
		switch {
		case tm.Msg.GetNoteStart(&ch, &note, &vel):
			held[key{ch, note}] = true
		case tm.Msg.GetNoteEnd(&ch, &note):
			delete(held, key{ch, note})
		}
		if err := send(tm.Msg); err != nil {
			release()
			return fmt.Errorf("send: %w", err)
		}
		debug.LogEvery(100, "port", "sent %s at %s", tm.Msg, tm.At)
	}
	return nil
}

// schedule flattens all tracks into channel messages with wall clock offsets.
// Tempo changes are honored; without one the MIDI default of 120 bpm applies.
func schedule(mf *smf.SMF) ([]timedMessage, error) {
	ticks, ok := mf.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format %v", mf.TimeFormat)
	}

	type absEvent struct {
		tick int64
		msg  smf.Message
	}
	var all []absEvent
	for _, tr := range mf.Tracks {
		var tick int64
		for _, ev := range tr {
			tick += int64(ev.Delta)
			all = append(all, absEvent{tick: tick, msg: ev.Message})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].tick < all[j].tick
	})

	var plan []timedMessage
	bpm := 120.0
	var at time.Duration
	var lastTick int64
	for _, ev := range all {
		at += tickDuration(ev.tick-lastTick, bpm, ticks.Ticks4th())
		lastTick = ev.tick

		var newBPM float64
		if ev.msg.GetMetaTempo(&newBPM) {
			bpm = newBPM
			continue
		}
		msg := gomidi.Message(ev.msg)
		var ch, a, b uint8
		if msg.GetNoteStart(&ch, &a, &b) || msg.GetNoteEnd(&ch, &a) || msg.GetProgramChange(&ch, &a) {
			plan = append(plan, timedMessage{At: at, Msg: msg})
		}
	}
	return plan, nil
}

func tickDuration(ticks int64, bpm float64, perQuarter uint32) time.Duration {
	return time.Duration(float64(ticks) * float64(time.Minute) / bpm / float64(perQuarter))
}
