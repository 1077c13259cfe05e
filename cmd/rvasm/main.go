package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/riscv-toolkit/rvasm/api"
	"github.com/riscv-toolkit/rvasm/assembler"
	"github.com/riscv-toolkit/rvasm/catalog"
	"github.com/riscv-toolkit/rvasm/decoder"
	"github.com/riscv-toolkit/rvasm/tools"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion     = flag.Bool("version", false, "Show version information")
		showHelp        = flag.Bool("help", false, "Show help information")
		apiServer       = flag.Bool("api-server", false, "Start HTTP API server mode")
		apiPort         = flag.Int("port", 8080, "API server port (used with -api-server)")
		xlen            = flag.Int("xlen", 32, "Target XLEN: 32 or 64")
		textBase        = flag.String("text-base", "0x0", "Text segment base address (hex or decimal)")
		dataBase        = flag.String("data-base", "0x2000", "Data segment base address (hex or decimal)")
		allowNumericCSR = flag.Bool("allow-numeric-csr", false, "Accept bare numeric CSR addresses in operands")
		outFile         = flag.String("o", "", "Output binary file (default: <input>.bin)")
		dumpSymbols     = flag.Bool("dump-symbols", false, "Dump the data-label symbol table and exit")
		lintMode        = flag.Bool("lint", false, "Lint the source instead of assembling it")
		xrefMode        = flag.Bool("xref", false, "Print a symbol cross-reference instead of assembling")
		formatMode      = flag.Bool("format", false, "Reformat the source and print it instead of assembling")
		decodeWord      = flag.String("decode", "", "Decode a single hex/decimal machine word and exit")
		verboseMode     = flag.Bool("verbose", false, "Verbose output")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("rvasm %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cats, err := catalog.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading instruction catalog: %v\n", err)
		os.Exit(1)
	}

	if *apiServer {
		runAPIServer(*apiPort, cats)
		return
	}

	if *decodeWord != "" {
		runDecode(*decodeWord, *xlen, cats)
		return
	}

	if flag.NArg() == 0 {
		printHelp()
		os.Exit(0)
	}

	asmFile := flag.Arg(0)
	source, err := os.ReadFile(asmFile) // #nosec G304 -- user-specified assembly file path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read %s: %v\n", asmFile, err)
		os.Exit(1)
	}

	switch {
	case *formatMode:
		runFormat(string(source), asmFile)
	case *lintMode:
		runLint(string(source), asmFile)
	case *xrefMode:
		runXRef(string(source), asmFile)
	default:
		runAssemble(string(source), asmFile, *xlen, *textBase, *dataBase, *allowNumericCSR, *outFile, *dumpSymbols, *verboseMode, cats)
	}
}

func runAPIServer(port int, cats *catalog.Catalogs) {
	server := api.NewServer(port, cats)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down API server...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				os.Exit(1)
			}

			fmt.Println("API server stopped")
			os.Exit(0)
		})
	}

	// Detect a crashed or force-quit parent (e.g. an editor extension
	// host) and shut down rather than leaving an orphaned process.
	monitor := api.NewProcessMonitor(performShutdown)
	monitor.Start()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	performShutdown()
}

func runDecode(wordStr string, xlen int, cats *catalog.Catalogs) {
	word, err := parseUint32(wordStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid word %q: %v\n", wordStr, err)
		os.Exit(1)
	}

	decoded, err := decoder.Decode(word, xlen, cats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%08X: %s\n", word, decoded.Assembly)
}

func runFormat(source, filename string) {
	output, err := tools.FormatString(source, filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Format error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(output)
}

func runLint(source, filename string) {
	linter := tools.NewLinter(tools.DefaultLintOptions())
	issues := linter.Lint(source, filename)

	errorCount := 0
	for _, issue := range issues {
		fmt.Println(issue.String())
		if issue.Level == tools.LintError {
			errorCount++
		}
	}

	if errorCount > 0 {
		os.Exit(1)
	}
}

func runXRef(source, filename string) {
	report, err := tools.GenerateXRef(source, filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "XRef error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(report)
}

func runAssemble(source, asmFile string, xlen int, textBaseStr, dataBaseStr string, allowNumericCSR bool, outFile string, dumpSymbols, verbose bool, cats *catalog.Catalogs) {
	textBase, err := parseUint64(textBaseStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -text-base %q: %v\n", textBaseStr, err)
		os.Exit(1)
	}
	dataBase, err := parseUint64(dataBaseStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -data-base %q: %v\n", dataBaseStr, err)
		os.Exit(1)
	}

	opts := assembler.Options{
		XLEN:            xlen,
		TextBase:        textBase,
		DataBase:        dataBase,
		AllowNumericCSR: allowNumericCSR,
	}

	result := assembler.Assemble(source, asmFile, cats, opts)
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
		os.Exit(1)
	}

	if dumpSymbols {
		dumpDataLabels(result.DataLabels)
		os.Exit(0)
	}

	out := outFile
	if out == "" {
		out = asmFile + ".bin"
	}

	allBytes := make([]byte, 0, len(result.TextBytes)+len(result.DataBytes))
	allBytes = append(allBytes, result.TextBytes...)
	allBytes = append(allBytes, result.DataBytes...)

	if err := os.WriteFile(out, allBytes, 0o644); err != nil { // #nosec G306 -- assembled binary is not sensitive
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
		os.Exit(1)
	}

	if verbose {
		fmt.Printf("Assembled %s -> %s (%d text bytes, %d data bytes)\n",
			asmFile, out, len(result.TextBytes), len(result.DataBytes))
	}
}

func dumpDataLabels(labels map[string]uint64) {
	fmt.Println("Symbol Table")
	fmt.Println("============")
	fmt.Println()
	fmt.Printf("%-30s %s\n", "Name", "Address")
	fmt.Println("--------------------------------------------------")

	type entry struct {
		name  string
		value uint64
	}
	entries := make([]entry, 0, len(labels))
	for name, value := range labels {
		entries = append(entries, entry{name, value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].value < entries[j].value })

	for _, e := range entries {
		fmt.Printf("%-30s 0x%016X\n", e.name, e.value)
	}
	fmt.Println()
	fmt.Printf("Total symbols: %d\n", len(entries))
}

func parseUint32(s string) (uint32, error) {
	v, err := parseUint64(s)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil // #nosec G115 -- decode inputs are user-specified test words, overflow is the caller's problem
}

func parseUint64(s string) (uint64, error) {
	var v uint64
	if len(s) > 2 && s[:2] == "0x" {
		_, err := fmt.Sscanf(s, "0x%x", &v)
		return v, err
	}
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func printHelp() {
	fmt.Printf(`rvasm %s

Usage: rvasm [options] <assembly-file>
       rvasm -decode WORD [-xlen 32|64]
       rvasm -api-server [-port N]

Options:
  -help                Show this help message
  -version             Show version information
  -api-server           Start HTTP API server mode (no assembly file required)
  -port N               API server port (default: 8080, used with -api-server)
  -xlen N                Target XLEN: 32 or 64 (default: 32)
  -text-base ADDR        Text segment base address (default: 0x0)
  -data-base ADDR        Data segment base address (default: 0x2000)
  -allow-numeric-csr     Accept bare numeric CSR addresses in operands
  -o FILE                Output binary file (default: <input>.bin)
  -dump-symbols          Dump the data-label symbol table and exit
  -lint                  Lint the source instead of assembling it
  -xref                  Print a symbol cross-reference instead of assembling
  -format                Reformat the source and print it instead of assembling
  -decode WORD           Decode a single hex/decimal machine word and exit
  -verbose               Verbose output

Examples:
  rvasm program.s
  rvasm -xlen 64 -o program.bin program.s
  rvasm -lint program.s
  rvasm -decode 0x00A30293
  rvasm -api-server -port 3000
`, Version)
}
