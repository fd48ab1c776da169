// Package composite is the `composite` subcommand: it wires flags, logging
// and input discovery around the mosaic engine.
package composite

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gruppe-adler/sar-composite/internal/discover"
	"github.com/gruppe-adler/sar-composite/internal/mosaic"
	"github.com/gruppe-adler/sar-composite/internal/utils"
)

var validPols = map[string]bool{"VV": true, "VH": true, "HH": true, "HV": true}

// Run is the subcommand's entrypoint
func Run(flagSet *flag.FlagSet) {

	start := time.Now()

	outPtr := flagSet.String("out", "", "Path of the output composite GeoTIFF")
	polPtr := flagSet.String("pol", "VV", "Polarization to mosaic (VV, VH, HH or HV)")
	resolutionPtr := flagSet.Float64("resolution", 0, "Output resolution (default: maximum pixel size of the inputs)")
	pathPtr := flagSet.String("path", "", "Path of a directory with a YYYYMMDD/PRODUCT/ input stack")
	inPtr := flagSet.String("in", "", "Comma-separated list of input rasters")
	snapshotsPtr := flagSet.Bool("snapshots", false, "Write a running composite snapshot after each input")
	logPtr := flagSet.String("log", "", "Path of the run log file (default: composite_<pid>.log)")

	flagSet.Parse(os.Args[2:])

	// make sure the output flag is present
	if *outPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	// make sure exactly one input source is given
	if (*pathPtr == "") == (*inPtr == "") {
		fmt.Println("ERROR: Either -path or -in must be given (not both).")
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	if !validPols[*polPtr] {
		fmt.Printf("ERROR: %s is not a valid polarization.\n", *polPtr)
		os.Exit(1)
	}

	if *pathPtr != "" && !utils.IsDirectory(*pathPtr) {
		fmt.Printf("ERROR: %s does not exist or is no directory.\n", *pathPtr)
		os.Exit(1)
	}

	log, closeLog, err := newLogger(*logPtr)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	log.Info("Starting run")

	// establish the input file list
	timer := time.Now()
	fmt.Println("▶️  Collecting input files")

	var infiles []string
	if *pathPtr != "" {
		infiles, err = discover.Products(*pathPtr, *polPtr)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		infiles = strings.Split(*inPtr, ",")
	}

	if len(infiles) == 0 {
		log.Fatal(errors.New("no input files found"))
	}

	fmt.Printf("✔️  Collected %d input files in %s\n", len(infiles), time.Since(timer).String())

	// build the mosaic
	timer = time.Now()
	fmt.Println("▶️  Building composite")

	err = mosaic.Make(log, mosaic.Config{
		Outfile:    *outPtr,
		Pol:        *polPtr,
		Resolution: *resolutionPtr,
		Infiles:    infiles,
		Snapshots:  *snapshotsPtr,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("✔️  Built composite in %s\n", time.Since(timer).String())

	log.Info("Program successfully completed")
	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}

// newLogger builds the run logger: timestamped text on stderr, duplicated
// into a per-run log file.
func newLogger(logFile string) (*logrus.Logger, func(), error) {
	if logFile == "" {
		logFile = fmt.Sprintf("composite_%d.log", os.Getpid())
	}

	file, err := os.Create(logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("create log file %s: %w", logFile, err)
	}

	log := logrus.New()
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return log, func() { file.Close() }, nil
}
