/* Play back a simulated DMIC capture stream over the local soundcard for audible bench verification. */
package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sof-dmic/dmic-core/dmic"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Drive a Device with a simulated DMA engine and play the
 *		16-bit PCM it produces out the default audio output, so a
 *		configured mode can be checked by ear rather than by
 *		inspecting register dumps. There is no real microphone
 *		behind this: a toneSource writes a sine wave into each
 *		block's buffer right before the simulated DMA completion
 *		hands it back, standing in for the PDM bitstream a real
 *		microphone would supply.
 *
 *------------------------------------------------------------------*/

// toneSource writes successive samples of a fixed-frequency sine wave
// at the configured output rate, carrying phase across calls so
// consecutive blocks join without a click.
type toneSource struct {
	hz    float64
	fsHz  int
	phase float64
}

func (t *toneSource) fill(buf []byte) {
	const amplitude = 1 << 14
	step := 2 * math.Pi * t.hz / float64(t.fsHz)
	for i := 0; i+1 < len(buf); i += 2 {
		s := int16(amplitude * math.Sin(t.phase))
		binary.LittleEndian.PutUint16(buf[i:i+2], uint16(s))
		t.phase += step
	}
	if t.phase > 2*math.Pi {
		t.phase = math.Mod(t.phase, 2*math.Pi)
	}
}

func main() {
	var profilePath = pflag.StringP("profile", "p", "", "Hardware profile YAML file. Uses the built-in default profile if omitted.")
	var toneHz = pflag.Float64P("tone-hz", "f", 440.0, "Frequency of the test tone written into each captured block before playback.")
	var seconds = pflag.Float64P("seconds", "s", 3.0, "Approximate seconds of audio to play.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - play back a simulated DMIC capture stream for bench verification.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nUsage: dmicplay [options] request.yaml\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help || pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	hw := dmic.DefaultHardwareProfile()
	if *profilePath != "" {
		data, err := os.ReadFile(*profilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dmicplay: reading profile: %v\n", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &hw); err != nil {
			fmt.Fprintf(os.Stderr, "dmicplay: parsing profile: %v\n", err)
			os.Exit(1)
		}
	}

	reqData, err := os.ReadFile(pflag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dmicplay: reading request: %v\n", err)
		os.Exit(1)
	}
	var req dmic.Request
	if err := yaml.Unmarshal(reqData, &req); err != nil {
		fmt.Fprintf(os.Stderr, "dmicplay: parsing request: %v\n", err)
		os.Exit(1)
	}
	if req.Streams[0].PCMWidth != 16 {
		fmt.Fprintf(os.Stderr, "dmicplay: stream 0 must request 16-bit PCM for direct playback\n")
		os.Exit(1)
	}

	rf := dmic.NewByteSliceRegisterFile()
	sim := dmic.NewSimDMA()
	dev := dmic.NewDevice(hw, rf, sim, dmic.NopLogger)

	if err := dev.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "dmicplay: initialize: %v\n", err)
		os.Exit(1)
	}
	if err := dev.Configure(req); err != nil {
		fmt.Fprintf(os.Stderr, "dmicplay: configure: %v\n", err)
		os.Exit(1)
	}
	if err := dev.Trigger(dmic.TriggerStart); err != nil {
		fmt.Fprintf(os.Stderr, "dmicplay: trigger start: %v\n", err)
		os.Exit(1)
	}
	defer dev.Trigger(dmic.TriggerStop)

	if err := portaudio.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "dmicplay: portaudio init: %v\n", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	fs := req.Streams[0].PCMRateHz
	framesPerBuffer := req.Streams[0].BlockSize / 2
	src := &toneSource{hz: *toneHz, fsHz: fs}

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(fs), framesPerBuffer, func(out []int16) {
		playBlock(dev, sim, src, out)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "dmicplay: open stream: %v\n", err)
		os.Exit(1)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "dmicplay: start stream: %v\n", err)
		os.Exit(1)
	}
	time.Sleep(time.Duration(*seconds * float64(time.Second)))
	stream.Stop()
}

// playBlock writes src's next samples into the buffer the simulated
// DMA is about to hand back, fires the completion, reads the result
// and copies it into PortAudio's output buffer. Called from
// PortAudio's own audio callback thread, so it must stay non-blocking;
// a short read timeout bounds that.
func playBlock(dev *dmic.Device, sim *dmic.SimDMA, src *toneSource, out []int16) {
	sim.FillNextBuffer(0, src.fill)
	sim.CompleteChannel(0, nil)

	buf, err := dev.Read(0, 50*time.Millisecond)
	if err != nil {
		for i := range out {
			out[i] = 0
		}
		return
	}
	defer dev.Release(0, buf)

	n := len(buf) / 2
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
	}
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
}
