package decoder

import (
	"fmt"
	"strings"

	"github.com/riscv-toolkit/rvasm/catalog"
)

var csrNamesByAddress = map[int64]string{
	0x001: "fflags", 0x002: "frm", 0x003: "fcsr",
	0xC00: "cycle", 0xC01: "time", 0xC02: "instret",
	0x300: "mstatus", 0x301: "misa", 0x304: "mie", 0x305: "mtvec",
	0x340: "mscratch", 0x341: "mepc", 0x342: "mcause", 0x343: "mtval", 0x344: "mip",
}

func reg(n int64) string  { return fmt.Sprintf("x%d", n) }
func freg(n int64) string { return fmt.Sprintf("f%d", n) }

func csrName(addr int64) string {
	if name, ok := csrNamesByAddress[addr]; ok {
		return name
	}
	return fmt.Sprintf("0x%03X", addr)
}

// format renders rec's disassembly string from its decoded operand
// values: loads and stores by category, everything else by encoding
// format, each to its operand-order template.
func format(rec catalog.Instruction, ops map[string]int64) string {
	m := strings.ToLower(rec.Mnemonic)

	switch rec.Category {
	case "Load":
		return fmt.Sprintf("%s %s, %d(%s)", m, reg(ops["rd"]), ops["imm"], reg(ops["rs1"]))
	case "Store":
		return fmt.Sprintf("%s %s, %d(%s)", m, reg(ops["rs2"]), ops["imm"], reg(ops["rs1"]))
	}

	switch rec.Format {
	case "R":
		return fmt.Sprintf("%s %s, %s, %s", m, reg(ops["rd"]), reg(ops["rs1"]), reg(ops["rs2"]))
	case "R4":
		return fmt.Sprintf("%s %s, %s, %s, %s", m, freg(ops["rd"]), freg(ops["rs1"]), freg(ops["rs2"]), freg(ops["rs3"]))
	case "I":
		if rec.Category == "CSR" {
			return fmt.Sprintf("%s %s, %s, %s", m, reg(ops["rd"]), csrName(ops["csr"]), reg(ops["rs1"]))
		}
		return fmt.Sprintf("%s %s, %s, %d", m, reg(ops["rd"]), reg(ops["rs1"]), ops["imm"])
	case "S":
		return fmt.Sprintf("%s %s, %d(%s)", m, reg(ops["rs2"]), ops["imm"], reg(ops["rs1"]))
	case "B":
		return fmt.Sprintf("%s %s, %s, %d", m, reg(ops["rs1"]), reg(ops["rs2"]), ops["imm"])
	case "U":
		return fmt.Sprintf("%s %s, 0x%X", m, reg(ops["rd"]), uint32(ops["imm"]))
	case "J":
		return fmt.Sprintf("%s %s, %d", m, reg(ops["rd"]), ops["imm"])
	case "CSR":
		return fmt.Sprintf("%s %s, %s, %s", m, reg(ops["rd"]), csrName(ops["csr"]), reg(ops["rs1"]))
	default:
		return m
	}
}
