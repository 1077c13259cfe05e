package assembler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riscv-toolkit/rvasm/assembler"
	"github.com/riscv-toolkit/rvasm/catalog"
)

func loadCatalogs(t *testing.T) *catalog.Catalogs {
	t.Helper()
	cats, err := catalog.LoadDefault()
	require.NoError(t, err)
	return cats
}

func TestAssembleADDI(t *testing.T) {
	cats := loadCatalogs(t)
	res := assembler.Assemble("addi x5, x6, 10\n", "t.s", cats, assembler.DefaultOptions())
	require.True(t, res.Success, res.Errors)
	require.Equal(t, []byte{0x93, 0x02, 0xA3, 0x00}, res.TextBytes)
}

func TestAssembleBranchToForwardLabel(t *testing.T) {
	cats := loadCatalogs(t)
	src := "beq x1, x2, target\naddi x0, x0, 0\ntarget:\naddi x1, x1, 1\n"
	res := assembler.Assemble(src, "t.s", cats, assembler.DefaultOptions())
	require.True(t, res.Success, res.Errors)
	require.Len(t, res.TextBytes, 12)

	// beq imm = target(8) - beq's own pc(0) = 8 -> imm[4:1]=0100, rest 0.
	word := uint32(res.TextBytes[0]) | uint32(res.TextBytes[1])<<8 | uint32(res.TextBytes[2])<<16 | uint32(res.TextBytes[3])<<24
	require.Equal(t, uint32(0x00208463), word)
}

func TestAssembleLISmallFitsADDI(t *testing.T) {
	cats := loadCatalogs(t)
	res := assembler.Assemble("li x5, 100\n", "t.s", cats, assembler.DefaultOptions())
	require.True(t, res.Success, res.Errors)
	require.Len(t, res.TextBytes, 4)
}

func TestAssembleLILargeExpandsToLuiAddi(t *testing.T) {
	cats := loadCatalogs(t)
	res := assembler.Assemble("li x5, 0x123456\n", "t.s", cats, assembler.DefaultOptions())
	require.True(t, res.Success, res.Errors)
	require.Len(t, res.TextBytes, 8)
}

func TestAssembleLI64BitExpandsSixInstructions(t *testing.T) {
	cats := loadCatalogs(t)
	opts := assembler.Options{XLEN: 64, DataBase: 0x2000}
	res := assembler.Assemble("li x5, 0x123456789A\n", "t.s", cats, opts)
	require.True(t, res.Success, res.Errors)
	require.Len(t, res.TextBytes, 6*4)
}

func TestAssembleDataAndTextWithLA(t *testing.T) {
	cats := loadCatalogs(t)
	src := ".data\nmsg:\n.word 42\n.text\nla x5, msg\n"
	res := assembler.Assemble(src, "t.s", cats, assembler.DefaultOptions())
	require.True(t, res.Success, res.Errors)
	require.Len(t, res.TextBytes, 8)
	require.Len(t, res.DataBytes, 4)
	require.Contains(t, res.DataLabels, "msg")
}

func TestAssembleLWFallsBackToPseudoWithoutMemOperand(t *testing.T) {
	cats := loadCatalogs(t)
	src := ".data\nval:\n.word 7\n.text\nlw x5, val\n"
	res := assembler.Assemble(src, "t.s", cats, assembler.DefaultOptions())
	require.True(t, res.Success, res.Errors)
	require.Len(t, res.TextBytes, 8)
}

func TestAssembleLWWithMemOperandUsesNativeEncoding(t *testing.T) {
	cats := loadCatalogs(t)
	res := assembler.Assemble("lw x5, 4(x6)\n", "t.s", cats, assembler.DefaultOptions())
	require.True(t, res.Success, res.Errors)
	require.Len(t, res.TextBytes, 4)
}

func TestAssembleFenceDefaultsToFullBarrier(t *testing.T) {
	cats := loadCatalogs(t)
	res := assembler.Assemble("fence\n", "t.s", cats, assembler.DefaultOptions())
	require.True(t, res.Success, res.Errors)
	word := uint32(res.TextBytes[0]) | uint32(res.TextBytes[1])<<8 | uint32(res.TextBytes[2])<<16 | uint32(res.TextBytes[3])<<24
	require.Equal(t, uint32(0x0FF0000F), word)
}

func TestAssembleFenceExplicitPredSucc(t *testing.T) {
	cats := loadCatalogs(t)
	res := assembler.Assemble("fence rw, w\n", "t.s", cats, assembler.DefaultOptions())
	require.True(t, res.Success, res.Errors)
	word := uint32(res.TextBytes[0]) | uint32(res.TextBytes[1])<<8 | uint32(res.TextBytes[2])<<16 | uint32(res.TextBytes[3])<<24
	// pred=rw=0b0011, succ=w=0b0001 -> predsucc[7:0] = 0011_0001 = 0x31
	require.Equal(t, uint32(0x0310000F), word)
}

func TestAssembleUndefinedSymbolProducesError(t *testing.T) {
	cats := loadCatalogs(t)
	res := assembler.Assemble("addi x5, x6, missing\n", "t.s", cats, assembler.DefaultOptions())
	require.False(t, res.Success)
	require.NotEmpty(t, res.Errors)
}

func TestAssembleLineToAddressMaps(t *testing.T) {
	cats := loadCatalogs(t)
	src := "addi x0, x0, 0\naddi x0, x0, 0\n"
	res := assembler.Assemble(src, "t.s", cats, assembler.DefaultOptions())
	require.True(t, res.Success, res.Errors)
	require.Equal(t, uint64(0), res.LineToFirstAddress[1])
	require.Equal(t, uint64(4), res.LineToFirstAddress[2])
	require.Equal(t, 1, res.AddressToLine[0])
	require.Equal(t, 2, res.AddressToLine[4])
}
