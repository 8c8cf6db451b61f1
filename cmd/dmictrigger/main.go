/* Watch a GPIO line and start/stop a configured DMIC capture when it toggles. */
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/warthog618/go-gpiocdev"
	"gopkg.in/yaml.v3"

	"github.com/sof-dmic/dmic-core/dmic"
)

/*------------------------------------------------------------------
 *
 * Purpose:	The Go-native analogue of the devicetree GPIO bindings a
 *		real capture board wires to a hardware record button: watch
 *		one GPIO line for edges and call Device.Trigger accordingly,
 *		rather than leaving trigger() to be driven only by an
 *		application's own call.
 *
 * Usage:	dmictrigger [options] request.yaml
 *
 *------------------------------------------------------------------*/

func main() {
	var chip = pflag.StringP("chip", "c", "gpiochip0", "GPIO character device to open.")
	var offset = pflag.UintP("line", "l", 0, "Line offset on the chip to watch.")
	var activeLow = pflag.BoolP("active-low", "a", false, "Treat a low level as the asserted (start) state.")
	var profilePath = pflag.StringP("profile", "p", "", "Hardware profile YAML file. Uses the built-in default profile if omitted.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - watch a GPIO line and start/stop DMIC capture on its edges.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nUsage: dmictrigger [options] request.yaml\n\n")
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
			fmt.Fprintf(os.Stderr, "dmictrigger: reading profile: %v\n", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &hw); err != nil {
			fmt.Fprintf(os.Stderr, "dmictrigger: parsing profile: %v\n", err)
			os.Exit(1)
		}
	}

	reqData, err := os.ReadFile(pflag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dmictrigger: reading request: %v\n", err)
		os.Exit(1)
	}
	var req dmic.Request
	if err := yaml.Unmarshal(reqData, &req); err != nil {
		fmt.Fprintf(os.Stderr, "dmictrigger: parsing request: %v\n", err)
		os.Exit(1)
	}

	logger := dmic.NewDefaultLogger()
	rf := dmic.NewByteSliceRegisterFile()
	dev := dmic.NewDevice(hw, rf, dmic.NewSimDMA(), logger)

	if err := dev.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "dmictrigger: initialize: %v\n", err)
		os.Exit(1)
	}
	if err := dev.Configure(req); err != nil {
		fmt.Fprintf(os.Stderr, "dmictrigger: configure: %v\n", err)
		os.Exit(1)
	}

	asserted := gpiocdev.LineActive
	if *activeLow {
		asserted = gpiocdev.LineInactive
	}

	handler := func(evt gpiocdev.LineEvent) {
		var start bool
		switch evt.Type {
		case gpiocdev.LineEventRisingEdge:
			start = asserted == gpiocdev.LineActive
		case gpiocdev.LineEventFallingEdge:
			start = asserted == gpiocdev.LineInactive
		default:
			return
		}

		if start {
			if err := dev.Trigger(dmic.TriggerStart); err != nil {
				logger.Warnf("trigger start: %v", err)
				return
			}
			logger.Infof("capture started (line %d event)", evt.Offset)
		} else {
			if err := dev.Trigger(dmic.TriggerStop); err != nil {
				logger.Warnf("trigger stop: %v", err)
				return
			}
			logger.Infof("capture stopped (line %d event)", evt.Offset)
		}
	}

	line, err := gpiocdev.RequestLine(*chip, int(*offset),
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(handler))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dmictrigger: request line %s:%d: %v\n", *chip, *offset, err)
		os.Exit(1)
	}
	defer line.Close()

	logger.Infof("watching %s line %d, active-low=%v", *chip, *offset, *activeLow)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_ = dev.Trigger(dmic.TriggerStop)
}
