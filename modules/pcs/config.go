package pcs

import (
	"fmt"
	"math/big"

	"ShardReducerCircuit/modules/fields"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/consensys/gnark/frontend"
)

// FriParams carries the static commitment scheme parameters shared by the
// prover and the in-circuit verifier.
type FriParams struct {
	LogBlowup       uint
	NumQueries      uint
	ProofOfWorkBits uint
}

// InnerParams is the canonical configuration for proofs meant to be consumed
// by a further reduce invocation.
func InnerParams() FriParams {
	return FriParams{
		LogBlowup:       4,
		NumQueries:      100,
		ProofOfWorkBits: 16,
	}
}

// TwoAdicSubgroup describes one multiplicative evaluation domain: the
// subgroup of order 2^LogSize shifted by Shift.
type TwoAdicSubgroup struct {
	LogSize uint
	Shift   frontend.Variable
}

// FriConfigTable is the materialized, in-circuit constant table of the
// commitment scheme: per-size subgroup generators and domain descriptors for
// every power-of-two size below the field's two-adicity, plus the scheme
// parameters. Built once per reduce program and shared read-only by every
// shard verification in the batch.
type FriConfigTable struct {
	FriParams

	Generators []frontend.Variable
	Subgroups  []TwoAdicSubgroup
}

// NewFriConfigTable emits the constant generator/domain table for the engine
// field. Index i holds the canonical generator of the order-2^i subgroup and
// the descriptor {LogSize: i, Shift: 1}. Inputs are compile-time constants,
// so the only failure path is an unsupported field.
func NewFriConfigTable(
	engine fields.ArithmeticEngine,
	params FriParams,
) (*FriConfigTable, error) {
	chain, err := twoAdicGeneratorChain(engine.ECCFieldEnum)
	if err != nil {
		return nil, err
	}

	table := FriConfigTable{
		FriParams:  params,
		Generators: make([]frontend.Variable, len(chain)),
		Subgroups:  make([]TwoAdicSubgroup, len(chain)),
	}

	for i, generator := range chain {
		table.Generators[i] = generator
		table.Subgroups[i] = TwoAdicSubgroup{
			LogSize: uint(i),
			Shift:   1,
		}
	}

	return &table, nil
}

// GeneratorFor returns the constant generator of the order-2^logSize
// subgroup. Out-of-range sizes are a build-time defect.
func (t *FriConfigTable) GeneratorFor(logSize uint) frontend.Variable {
	if int(logSize) >= len(t.Generators) {
		panic(fmt.Sprintf(
			"domain of log size %d exceeding the field two-adicity", logSize))
	}
	return t.Generators[logSize]
}

// NativeGeneratorFor returns the order-2^logSize subgroup generator as a
// native constant, for out-of-circuit replays of the opening argument.
func NativeGeneratorFor(
	fieldEnum fields.ECCFieldEnum, logSize uint) (*big.Int, error) {

	chain, err := twoAdicGeneratorChain(fieldEnum)
	if err != nil {
		return nil, err
	}
	if int(logSize) >= len(chain) {
		return nil, fmt.Errorf(
			"domain of log size %d exceeding the field two-adicity", logSize)
	}
	return chain[logSize], nil
}

// twoAdicGeneratorChain returns, for i in [0, TwoAdicity), the canonical
// generator of the multiplicative subgroup of order 2^i, as native constants.
// The chain is derived by repeated squaring downward from the generator of
// the maximal two-adic subgroup, so g_i = g_{i+1}^2 by construction.
func twoAdicGeneratorChain(fieldEnum fields.ECCFieldEnum) ([]*big.Int, error) {
	modulus := fieldEnum.FieldModulus()
	adicity := fieldEnum.TwoAdicity()

	var maxGenerator *big.Int
	switch fieldEnum {
	case fields.ECCBN254:
		element, err := fft.Generator(uint64(1) << adicity)
		if err != nil {
			return nil, fmt.Errorf("bn254 two-adic generator: %w", err)
		}
		maxGenerator = new(big.Int)
		element.BigInt(maxGenerator)
	case fields.ECCM31:
		// the order-2 subgroup is {1, p-1}
		maxGenerator = new(big.Int).Sub(modulus, big.NewInt(1))
	default:
		return nil, fmt.Errorf(
			"no two-adic generator chain for field enum %d", fieldEnum)
	}

	chain := make([]*big.Int, adicity)
	current := new(big.Int).Set(maxGenerator)
	for i := int(adicity) - 1; i >= 0; i-- {
		current = new(big.Int).Mod(new(big.Int).Mul(current, current), modulus)
		chain[i] = current
	}

	return chain, nil
}
