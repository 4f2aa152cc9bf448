// Command akmc is the AKM v2 module compiler's command-line front end. It
// wires akm/compile and akm/inspect behind the flag surface spec.md §6
// defines. Arguments are parsed by a hand-written loop that accepts both
// the short and long spelling of each option (no flag package, cobra or
// other CLI framework is used).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/compile"
	"github.com/chazu/akmc/akm/inspect"
	"github.com/chazu/akmc/internal/config"
	"github.com/chazu/akmc/internal/fleet"
	"github.com/chazu/akmc/internal/irdump"
	"github.com/chazu/akmc/internal/ledger"
)

const version = "akmc 0.1.0 (AKM v2)"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		output     string
		verbose    bool
		debug      bool
		optimize   bool
		caps       string
		dryRun     bool
		emitIR     bool
		infoFlag   bool
		showVer    bool
		showHelp   bool
		batchDir   string
		ledgerPath string
	)

	var positional []string
	i := 0
	for i < len(args) {
		a := args[i]
		switch a {
		case "-o", "--output":
			i++
			if i >= len(args) {
				return usageError("%s requires a path", a)
			}
			output = args[i]
		case "-v", "--verbose":
			verbose = true
		case "-d", "--debug":
			debug = true
		case "-O", "--optimize":
			optimize = true
		case "-c", "--caps":
			i++
			if i >= len(args) {
				return usageError("%s requires a value", a)
			}
			caps = args[i]
		case "--dry-run":
			dryRun = true
		case "--emit-ir":
			emitIR = true
		case "-i", "--info":
			infoFlag = true
		case "--version":
			showVer = true
		case "-h", "--help":
			showHelp = true
		case "--batch":
			i++
			if i >= len(args) {
				return usageError("--batch requires a directory")
			}
			batchDir = args[i]
		case "--ledger":
			i++
			if i >= len(args) {
				return usageError("--ledger requires a path")
			}
			ledgerPath = args[i]
		default:
			positional = append(positional, a)
		}
		i++
	}

	if showHelp {
		printUsage()
		return 0
	}
	if showVer {
		fmt.Println(version)
		return 0
	}
	if batchDir != "" {
		return runBatch(batchDir)
	}

	if len(positional) != 1 {
		return usageError("expected exactly one input file")
	}
	input := positional[0]

	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "akmc: cannot read %s: %v\n", input, err)
		return 1
	}

	if infoFlag {
		return runInfo(data)
	}

	cfg, _ := config.FindAndLoad(filepath.Dir(input))

	opts := compile.Options{Optimize: optimize, Debug: debug}
	if !optimize && cfg != nil {
		opts.Optimize = cfg.Build.Optimize
	}
	if caps != "" {
		mask, ok := parseCapsOverride(caps)
		if !ok {
			return usageError("invalid -c/--caps value %q", caps)
		}
		opts.CapsOverride = &mask
	}

	result, err := compile.Compile(input, string(data), opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "akmc: warning: %s\n", w)
	}

	if emitIR {
		blob, err := irdump.Marshal(result.Module)
		if err != nil {
			fmt.Fprintf(os.Stderr, "akmc: emit-ir: %v\n", err)
			return 1
		}
		os.Stdout.Write(blob)
		return 0
	}

	if dryRun {
		if verbose {
			fmt.Fprintf(os.Stderr, "akmc: dry run ok, artifact would be %d bytes\n", len(result.Artifact))
		}
		return 0
	}

	outPath := output
	if outPath == "" {
		outPath = defaultOutputPath(input)
		if cfg != nil && cfg.OutputDir() != "" {
			outPath = filepath.Join(cfg.OutputDir(), filepath.Base(outPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil && filepath.Dir(outPath) != "." {
		fmt.Fprintf(os.Stderr, "akmc: cannot create output directory: %v\n", err)
		return 1
	}
	if err := os.WriteFile(outPath, result.Artifact, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "akmc: cannot write %s: %v\n", outPath, err)
		return 1
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "akmc: wrote %s (%d bytes)\n", outPath, len(result.Artifact))
	}

	if ledgerPath != "" {
		if err := recordLedger(ledgerPath, input, result.Artifact); err != nil {
			fmt.Fprintf(os.Stderr, "akmc: ledger: %v\n", err)
			return 1
		}
	}

	return 0
}

func runInfo(data []byte) int {
	res, err := compile.Inspect(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, "akmc:", err)
		return 1
	}
	fmt.Print(inspect.Report(res))
	return 0
}

func runBatch(dir string) int {
	rep, err := fleet.ScanDir(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "akmc:", err)
		return 1
	}
	fmt.Printf("scanned %d artifact(s) in %s\n", rep.Scanned, dir)
	for _, f := range rep.Failed {
		fmt.Fprintf(os.Stderr, "akmc: %s: %v\n", f.Path, f.Err)
	}
	fmt.Println("security levels:")
	for _, lc := range rep.SecurityLevelCounts {
		fmt.Printf("  %d: %d\n", lc.Level, lc.Count)
	}
	fmt.Println("capability masks:")
	for _, cc := range rep.CapabilityHistogram {
		fmt.Printf("  %s: %d\n", cc.Name, cc.Count)
	}
	fmt.Printf("average dependency fan-out: %.2f\n", rep.DependencyFanout)
	return 0
}

func recordLedger(path, sourcePath string, artifact []byte) error {
	l, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer l.Close()

	h, err := inspect.Inspect(artifact)
	if err != nil {
		return err
	}
	id, err := l.Record(sourcePath, h.Header)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "akmc: ledger entry %s\n", id)
	return nil
}

// defaultOutputPath derives the output path by stripping ".akm.js" or
// ".js" and appending ".akm" (spec §6).
func defaultOutputPath(input string) string {
	base := input
	switch {
	case strings.HasSuffix(base, ".akm.js"):
		base = strings.TrimSuffix(base, ".akm.js")
	case strings.HasSuffix(base, ".js"):
		base = strings.TrimSuffix(base, ".js")
	}
	return base + ".akm"
}

// parseCapsOverride accepts either a hex literal ("0x1803") or a
// comma-separated list of capability names ("LOG,FS_READ").
func parseCapsOverride(s string) (uint32, bool) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, false
		}
		return uint32(v), true
	}
	var mask uint32
	for _, name := range strings.Split(s, ",") {
		bit, ok := akm.CapabilityByName(strings.TrimSpace(name))
		if !ok {
			return 0, false
		}
		mask |= uint32(bit)
	}
	return mask, true
}

func usageError(format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "akmc: "+format+"\n", args...)
	printUsage()
	return 1
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: akmc [options] <input>

options:
  -o, --output <path>   output artifact path (default: derived from input)
  -v, --verbose         print progress to stderr
  -d, --debug           set the DEBUG header flag
  -O, --optimize        run the IR optimizer before code generation
  -c, --caps <spec>     override capabilities (0xHEX or NAME,NAME,...)
      --dry-run         compile but do not write an artifact
      --emit-ir         dump the IR as canonical CBOR instead of writing an artifact
  -i, --info            parse <input> as a compiled artifact and report its header
      --batch <dir>     (additive) aggregate-inspect every *.akm file in dir
      --ledger <path>   (additive) record this build in a sqlite build ledger
      --version         print the compiler version
  -h, --help            print this message`)
}
