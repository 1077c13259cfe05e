package catalog_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riscv-toolkit/rvasm/catalog"
)

const sampleInstructions = `[
  {
    "mnemonic": "addi",
    "extension": "RV32I",
    "format": "I",
    "category": "Arith",
    "encoding": "xxxxxxxxxxxxxxxxx000xxxxx0010011",
    "operands": ["rd", "rs1", "imm"],
    "encodingFields": [
      {"name": "imm", "startBit": 31, "endBit": 20, "value": "xxxxxxxxxxxx", "category": "immediate"},
      {"name": "rs1", "startBit": 19, "endBit": 15, "value": "xxxxx", "category": "rs1"},
      {"name": "funct3", "startBit": 14, "endBit": 12, "value": "000", "category": "funct"},
      {"name": "rd", "startBit": 11, "endBit": 7, "value": "xxxxx", "category": "rd"},
      {"name": "opcode", "startBit": 6, "endBit": 0, "value": "0010011", "category": "opcode"}
    ],
    "instructionCount": {"rv32": 1, "rv64": 1}
  },
  {
    "mnemonic": "addiw",
    "extension": "RV64I",
    "format": "I",
    "category": "Arith",
    "encoding": "xxxxxxxxxxxxxxxxx000xxxxx0011011",
    "operands": ["rd", "rs1", "imm"],
    "encodingFields": [
      {"name": "imm", "startBit": 31, "endBit": 20, "value": "xxxxxxxxxxxx", "category": "immediate"},
      {"name": "rs1", "startBit": 19, "endBit": 15, "value": "xxxxx", "category": "rs1"},
      {"name": "funct3", "startBit": 14, "endBit": 12, "value": "000", "category": "funct"},
      {"name": "rd", "startBit": 11, "endBit": 7, "value": "xxxxx", "category": "rd"},
      {"name": "opcode", "startBit": 6, "endBit": 0, "value": "0011011", "category": "opcode"}
    ],
    "instructionCount": {"rv32": 0, "rv64": 1}
  }
]`

const samplePseudo = `[
  {
    "mnemonic": "mv",
    "pseudoinstruction": "mv rd, rs",
    "baseInstructions": ["addi rd, rs, 0"],
    "requiredExtensions": ["RV32I"]
  }
]`

func TestLoadBuildsIndexes(t *testing.T) {
	c, err := catalog.Load([]byte(sampleInstructions), []byte(samplePseudo))
	require.NoError(t, err)

	rec, ok := c.Lookup("ADDI", 32)
	require.True(t, ok)
	require.Equal(t, "RV32I", rec.Extension)
	require.Equal(t, 32, rec.Width())

	_, ok = c.Lookup("ADDIW", 32)
	require.False(t, ok, "ADDIW is RV64-only and must not resolve under xlen=32")

	rec, ok = c.Lookup("ADDIW", 64)
	require.True(t, ok)
	require.Equal(t, "RV64I", rec.Extension)

	pseudos := c.Pseudos("MV")
	require.Len(t, pseudos, 1)
	require.Equal(t, "mv rd, rs", pseudos[0].PseudoInstruction)
}

func TestLoadPrefersRV32OnDefaultIndexTie(t *testing.T) {
	zeros := strings.Repeat("0", 32)
	dup := fmt.Sprintf(`[
      {"mnemonic":"X","extension":"RV64Q","format":"R","category":"Arith","encoding":"%s","operands":[],"encodingFields":[]},
      {"mnemonic":"X","extension":"RV32Q","format":"R","category":"Arith","encoding":"%s","operands":[],"encodingFields":[]}
    ]`, zeros, zeros)
	c, err := catalog.Load([]byte(dup), nil)
	require.NoError(t, err)

	rec, ok := c.LookupExt("X", "RV64Q")
	require.True(t, ok)
	require.Equal(t, "RV64Q", rec.Extension)

	// by_mnemonic_ext keeps first occurrence (RV64Q) while the default
	// by_mnemonic index still prefers the RV32 variant on a tie. Q is in
	// no lookup order, so Lookup falls through to the default index.
	def, ok := c.Lookup("X", 0)
	require.True(t, ok)
	require.Equal(t, "RV32Q", def.Extension)
}

func TestValidateCatchesBadBitRanges(t *testing.T) {
	bad := fmt.Sprintf(`[{"mnemonic":"Y","extension":"RV32I","format":"R","category":"Arith","encoding":"%s","operands":[],"encodingFields":[{"name":"rd","startBit":40,"endBit":7,"value":"x","category":"rd"}]}]`, strings.Repeat("0", 32))
	c, err := catalog.Load([]byte(bad), nil)
	require.NoError(t, err)
	errs := c.Validate()
	require.NotEmpty(t, errs)
}
