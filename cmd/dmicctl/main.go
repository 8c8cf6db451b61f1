/* Configure a DMIC instance from a YAML request file and capture a few blocks from it. */
package main

import (
	"fmt"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sof-dmic/dmic-core/dmic"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Bench tool: load a hardware profile and a capture request
 *		from YAML, run them through Configure/Trigger(START), read
 *		back a handful of blocks, and print the device state and
 *		each block's size. The register image itself is not
 *		printed; with --verbose every register write that
 *		ProgramConfig makes is logged to stderr.
 *
 * Usage:	dmicctl [options] request.yaml
 *
 *------------------------------------------------------------------*/

func main() {
	var profilePath = pflag.StringP("profile", "p", "", "Hardware profile YAML file. Uses the built-in default profile if omitted.")
	var verbose = pflag.BoolP("verbose", "v", false, "Log every register write as it happens.")
	var blocks = pflag.IntP("blocks", "n", 3, "Number of blocks to capture from stream 0 before exiting.")
	var readTimeout = pflag.DurationP("read-timeout", "t", 2*time.Second, "Per-block read timeout.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - configure a DMIC capture session from a YAML request and dump captured blocks.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nUsage: dmicctl [options] request.yaml\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help || pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	logger := dmic.NewLogger(os.Stderr, charmlog.DebugLevel)
	if !*verbose {
		logger = dmic.NopLogger
	}

	hw := dmic.DefaultHardwareProfile()
	if *profilePath != "" {
		data, err := os.ReadFile(*profilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dmicctl: reading profile: %v\n", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &hw); err != nil {
			fmt.Fprintf(os.Stderr, "dmicctl: parsing profile: %v\n", err)
			os.Exit(1)
		}
	}

	reqData, err := os.ReadFile(pflag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dmicctl: reading request: %v\n", err)
		os.Exit(1)
	}
	var req dmic.Request
	if err := yaml.Unmarshal(reqData, &req); err != nil {
		fmt.Fprintf(os.Stderr, "dmicctl: parsing request: %v\n", err)
		os.Exit(1)
	}

	rf := dmic.NewByteSliceRegisterFile()
	sim := dmic.NewSimDMA()
	dev := dmic.NewDevice(hw, rf, sim, logger)

	if err := dev.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "dmicctl: initialize: %v\n", err)
		os.Exit(1)
	}
	if err := dev.Configure(req); err != nil {
		fmt.Fprintf(os.Stderr, "dmicctl: configure: %v\n", err)
		os.Exit(1)
	}
	if err := dev.Trigger(dmic.TriggerStart); err != nil {
		fmt.Fprintf(os.Stderr, "dmicctl: trigger start: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("state: %s\n", dev.StateValue())

	for i := 0; i < *blocks; i++ {
		sim.CompleteChannel(0, nil)
		buf, err := dev.Read(0, *readTimeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dmicctl: read block %d: %v\n", i, err)
			os.Exit(1)
		}
		fmt.Printf("block %d: %d bytes\n", i, len(buf))
		dev.Release(0, buf)
	}

	if err := dev.Trigger(dmic.TriggerStop); err != nil {
		fmt.Fprintf(os.Stderr, "dmicctl: trigger stop: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("state: %s\n", dev.StateValue())
}
