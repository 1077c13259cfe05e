// Package assembler implements the two-pass RISC-V assembler: symbol
// and size resolution (pass one), pseudo-instruction expansion, data
// directive emission, and the byte/line-map emitter (pass two).
package assembler

// Options configures one assembly call.
type Options struct {
	XLEN            int // 32 or 64; defaults to 32
	TextBase        uint64
	DataBase        uint64 // defaults to 0x2000
	AllowNumericCSR bool
}

// DefaultOptions returns the standard target defaults: RV32, text at 0, data at 0x2000.
func DefaultOptions() Options {
	return Options{XLEN: 32, TextBase: 0, DataBase: 0x2000}
}

func (o Options) normalized() Options {
	if o.XLEN == 0 {
		o.XLEN = 32
	}
	if o.DataBase == 0 {
		o.DataBase = 0x2000
	}
	return o
}

// Result holds the output of one assembly run: the emitted bytes, the
// base addresses they were placed at, line/address cross-reference
// maps for listings, and any diagnostics.
type Result struct {
	TextBytes []byte
	DataBytes []byte
	TextBase  uint64
	DataBase  uint64

	LineToFirstAddress map[int]uint64
	AddressToLine      map[uint64]int

	DataLabels map[string]uint64

	Errors  []string
	Success bool
}
