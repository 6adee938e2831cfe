package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"gitlab.com/gomidi/midi/v2/smf"

	"termseq/midi"
	"termseq/playback"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "dump":
		if len(os.Args) < 3 {
			usage()
			return
		}
		err = dumpFile(os.Args[2])
	case "play":
		if len(os.Args) < 3 {
			usage()
			return
		}
		pattern := ""
		if len(os.Args) > 3 {
			pattern = os.Args[3]
		}
		err = playFile(os.Args[2], pattern)
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                 - List MIDI output ports")
	fmt.Println("  dump <file>          - Print the tracks of a MIDI file")
	fmt.Println("  play <file> [port]   - Play a MIDI file through an output port")
}

func listPorts() error {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Printf("(waiting up to %s...)\n", midi.ScanTimeout)

	outs, err := midi.OutPorts(midi.ScanTimeout)
	if err != nil {
		fmt.Println("\nTIMEOUT! The MIDI service is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	return nil
}

func dumpFile(path string) error {
	mf, err := smf.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d tracks, %v\n", path, len(mf.Tracks), mf.TimeFormat)
	for i, tr := range mf.Tracks {
		fmt.Printf("\n=== Track %d ===\n", i)
		var tick int64
		for _, ev := range tr {
			tick += int64(ev.Delta)
			fmt.Printf("  %6d  %s\n", tick, ev.Message)
		}
	}
	return nil
}

func playFile(path, pattern string) error {
	port, err := midi.FindOutPort(pattern, midi.ScanTimeout)
	if err != nil {
		return err
	}
	fmt.Printf("Playing %s on %s (ctrl+c to stop)\n", path, port.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	synth := &playback.PortSynth{Port: port}
	if err := synth.Play(ctx, path); err != nil && ctx.Err() == nil {
		return err
	}
	return port.Close()
}
