package pcs

import (
	"math/big"
	"testing"

	"ShardReducerCircuit/modules/fields"

	"github.com/stretchr/testify/require"
)

func TestTwoAdicGeneratorChainBN254(t *testing.T) {
	chain, err := twoAdicGeneratorChain(fields.ECCBN254)
	require.NoError(t, err)
	require.Len(t, chain, int(fields.ECCBN254.TwoAdicity()))

	modulus := fields.ECCBN254.FieldModulus()

	// index 0 holds the trivial subgroup generator
	require.Equal(t, "1", chain[0].String())

	// index 1 holds the order-2 generator, p - 1
	pMinusOne := new(big.Int).Sub(modulus, big.NewInt(1))
	require.Equal(t, pMinusOne.String(), chain[1].String())

	// squaring relation g_i = g_{i+1}^2 across the whole chain
	for i := 0; i+1 < len(chain); i++ {
		squared := new(big.Int).Mod(
			new(big.Int).Mul(chain[i+1], chain[i+1]), modulus)
		require.Equal(t, chain[i].String(), squared.String(),
			"squaring chain broken between index %d and %d", i, i+1)
	}

	// every entry really has the claimed order: g_i^(2^i) == 1, and the
	// half power is not 1 (except the trivial subgroup)
	for i, generator := range chain {
		order := new(big.Int).Lsh(big.NewInt(1), uint(i))
		require.Equal(t, "1",
			new(big.Int).Exp(generator, order, modulus).String(),
			"generator at index %d order too big", i)
		if i > 0 {
			half := new(big.Int).Rsh(order, 1)
			require.NotEqual(t, "1",
				new(big.Int).Exp(generator, half, modulus).String(),
				"generator at index %d order too small", i)
		}
	}
}

func TestTwoAdicGeneratorChainM31(t *testing.T) {
	chain, err := twoAdicGeneratorChain(fields.ECCM31)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	require.Equal(t, "1", chain[0].String())
}

func TestTwoAdicGeneratorChainDeterminism(t *testing.T) {
	first, err := twoAdicGeneratorChain(fields.ECCBN254)
	require.NoError(t, err)
	second, err := twoAdicGeneratorChain(fields.ECCBN254)
	require.NoError(t, err)

	for i := range first {
		require.Equal(t, first[i].String(), second[i].String())
	}
}

func TestInnerParams(t *testing.T) {
	params := InnerParams()
	require.Equal(t, uint(4), params.LogBlowup)
	require.Equal(t, uint(100), params.NumQueries)
	require.Equal(t, uint(16), params.ProofOfWorkBits)
}
