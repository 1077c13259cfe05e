package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riscv-toolkit/rvasm/catalog"
)

func TestLoadDefaultProducesAValidatedCatalog(t *testing.T) {
	cats, err := catalog.LoadDefault()
	require.NoError(t, err)
	require.Empty(t, cats.Validate())

	rec, ok := cats.Lookup("ADD", 32)
	require.True(t, ok)
	require.Equal(t, "RV32I", rec.Extension)

	_, ok = cats.Lookup("ADDW", 32)
	require.False(t, ok, "ADDW is RV64-only")

	rec, ok = cats.Lookup("ADDW", 64)
	require.True(t, ok)
	require.Equal(t, "RV64I", rec.Extension)

	rec, ok = cats.Lookup("CSRRW", 32)
	require.True(t, ok)
	require.Equal(t, "RV32Zicsr", rec.Extension)

	pseudos := cats.Pseudos("LA")
	require.Len(t, pseudos, 1)
	require.Equal(t, "la rd, symbol", pseudos[0].PseudoInstruction)
}

func TestLoadDefaultXLENSelectsSRAIVariant(t *testing.T) {
	cats, err := catalog.LoadDefault()
	require.NoError(t, err)

	rv32, ok := cats.Lookup("SRAI", 32)
	require.True(t, ok)
	require.Equal(t, 32, rv32.Width())

	rv64, ok := cats.Lookup("SRAI", 64)
	require.True(t, ok)
	require.Equal(t, "RV64I", rv64.Extension)
}
