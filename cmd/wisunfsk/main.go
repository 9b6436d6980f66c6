package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dbehnke/wisunfsk/internal/codec"
	"github.com/dbehnke/wisunfsk/internal/config"
	"github.com/dbehnke/wisunfsk/internal/protocol/wisun"
	"github.com/spf13/pflag"
)

const VERSION = "1.0.0"

var errUsage = errors.New("usage error")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// algo is a stand-alone transform selected instead of frame encode/decode
type algo int

const (
	algoFrame algo = iota
	algoPN9
	algoRSC
	algoNRNSC
	algoInterleaving
)

// app holds the resolved settings of one invocation
type app struct {
	cfg    *config.Config
	logger *log.Logger
	stdout io.Writer

	algo       algo
	decode     bool
	encode     bool
	all        bool
	hexo       bool
	group      int
	preamble   int
	sfd        wisun.SFDType
	fec        codec.Code
	fecSet     bool // decode with fec instead of detecting the family
	opts       wisun.Options
	skipVerify bool
	maxDist    int
	timestamp  string
	capture    string
}

// run executes one invocation. Failures are logged through the same logger
// the invocation traces with, after the configured level is applied.
func run(args []string, stdout, stderr io.Writer) error {
	logger := log.NewWithOptions(stderr, log.Options{Prefix: "wisunfsk"})
	err := execute(args, stdout, stderr, logger)
	if err != nil && !errors.Is(err, errUsage) {
		logger.Error(err)
	}
	return err
}

func execute(args []string, stdout, stderr io.Writer, logger *log.Logger) error {
	fs := pflag.NewFlagSet("wisunfsk", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		pn9          = fs.Bool("pn9", false, "Whiten/de-whiten a binary string with PN9")
		rsc          = fs.Bool("rsc", false, "Encode a binary string with the RSC encoder (with -d, Viterbi decode)")
		nrnsc        = fs.Bool("nrnsc", false, "Encode a binary string with the NRNSC encoder (with -d, Viterbi decode)")
		interleaving = fs.Bool("interleaving", false, "Interleave 32-bit blocks of a binary string (with -d, de-interleave)")
		decode       = fs.BoolP("decode", "d", false, "Decode a Wi-SUN 2-FSK frame from a binary string (default)")
		encode       = fs.BoolP("encode", "e", false, "Encode a hex PSDU into a Wi-SUN 2-FSK frame")
		all          = fs.Bool("all", false, "Decode every frame in the input, not just the first")
		hexo         = fs.Bool("hexo", false, "Print the encode/decode result in hex")
		human        = fs.Bool("human", false, "Print binary output in groups of 4 bits")
		skipVerify   = fs.Bool("skip-verify", false, "Do not verify the FCS of decoded frames")
		sfdName      = fs.String("sfd", "", "SFD for encoding: coded0, uncoded0, coded1, uncoded1")
		fecName      = fs.String("fec", "", "FEC code family of coded frames: rsc or nrnsc (decode detects it when unset)")
		preamble     = fs.Int("preamble", 0, "Preamble length in bits for encoding (multiple of 8)")
		whitening    = fs.Bool("whitening", true, "Whiten the PSDU when encoding")
		maxDist      = fs.Int("max-fec-distance", -1, "Reject coded frames whose Viterbi path distance is larger (negative: unlimited)")
		configFile   = fs.StringP("config", "c", getDefaultConfig(), "Configuration file path")
		captureDB    = fs.String("capture-db", "", "Record frames into this SQLite database")
		captureStats = fs.Bool("capture-stats", false, "Print capture database statistics and exit")
		logLevel     = fs.String("log-level", "", "Log level: debug, info, warn, error")
		tsFormat     = fs.StringP("timestamp-format", "T", "", "Precede decoded frames with 'strftime' format time stamp")
		version      = fs.BoolP("version", "v", false, "Show version information")
		help         = fs.BoolP("help", "h", false, "Show this message")
	)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: wisunfsk [OPTIONS] \"binary-string\"\n")
		fmt.Fprintf(stderr, "       wisunfsk -e [OPTIONS] \"hex-psdu\"\n")
		fmt.Fprintf(stderr, "\n")
		fmt.Fprintf(stderr, "Wi-SUN 2-FSK PHY frame codec.\n")
		fmt.Fprintf(stderr, "\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if *help {
		fs.Usage()
		return nil
	}
	if *version {
		fmt.Fprintf(stdout, "version: %s\n", VERSION)
		return nil
	}

	cfg := config.NewConfig(*configFile)
	if *configFile != "" {
		if err := cfg.Load(); err != nil {
			return err
		}
	}

	level := cfg.GetLogLevel()
	if fs.Changed("log-level") {
		l, err := log.ParseLevel(*logLevel)
		if err != nil {
			return err
		}
		level = l
	}
	logger.SetLevel(level)

	a := &app{
		cfg:        cfg,
		logger:     logger,
		stdout:     stdout,
		decode:     *decode,
		encode:     *encode,
		all:        *all,
		hexo:       *hexo,
		preamble:   cfg.GetPreambleLength(),
		sfd:        cfg.GetSFD(),
		fec:        cfg.GetFEC(),
		fecSet:     cfg.GetFECConfigured(),
		opts:       cfg.EncodeOptions(),
		skipVerify: cfg.GetSkipVerify() || *skipVerify,
		maxDist:    cfg.GetMaxFECDistance(),
		timestamp:  cfg.GetTimestampFormat(),
	}
	if *human {
		a.group = 4
	}
	if cfg.GetCaptureEnabled() {
		a.capture = cfg.GetCapturePath()
	}

	if fs.Changed("sfd") {
		sfd, err := wisun.ParseSFD(*sfdName)
		if err != nil {
			return err
		}
		a.sfd = sfd
	}
	if fs.Changed("fec") {
		code, err := codec.ParseCode(*fecName)
		if err != nil {
			return err
		}
		a.fec = code
		a.fecSet = true
		a.opts.Code = code
	}
	if fs.Changed("preamble") {
		a.preamble = *preamble
	}
	if fs.Changed("whitening") {
		a.opts.Whitening = *whitening
	}
	if fs.Changed("max-fec-distance") {
		a.maxDist = *maxDist
	}
	if fs.Changed("timestamp-format") {
		a.timestamp = *tsFormat
	}
	if fs.Changed("capture-db") {
		a.capture = *captureDB
	}

	if *captureStats {
		return a.printCaptureStats()
	}

	n := 0
	for i, set := range []bool{*pn9, *rsc, *nrnsc, *interleaving} {
		if set {
			a.algo = algo(i + 1)
			n++
		}
	}
	if n > 1 {
		fs.Usage()
		return fmt.Errorf("%w: --pn9, --rsc, --nrnsc and --interleaving are exclusive", errUsage)
	}
	if a.decode && a.encode {
		fs.Usage()
		return fmt.Errorf("%w: -d and -e are exclusive", errUsage)
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("%w: missing input", errUsage)
	}
	input := strings.Join(fs.Args(), "")

	logger.Debug("starting", "version", VERSION, "config", *configFile)

	switch a.algo {
	case algoPN9:
		return a.runPN9(input)
	case algoRSC:
		return a.runFEC(codec.RSC, input)
	case algoNRNSC:
		return a.runFEC(codec.NRNSC, input)
	case algoInterleaving:
		return a.runInterleaving(input)
	}

	if a.encode {
		return a.runEncodeFrame(input)
	}
	return a.runDecodeFrame(input)
}

func getDefaultConfig() string {
	// Check for config file in current directory first
	if _, err := os.Stat("wisunfsk.yaml"); err == nil {
		return "wisunfsk.yaml"
	}

	// Check system location
	systemConfig := "/etc/wisunfsk.yaml"
	if _, err := os.Stat(systemConfig); err == nil {
		return systemConfig
	}

	// Built-in defaults only
	return ""
}
