package challenger

import (
	"ShardReducerCircuit/modules/fields"

	"github.com/consensys/gnark/frontend"
)

// FieldHasher describes the sponge permutation backing a Fiat-Shamir
// transcript. The implementation and instantiation should be considered to be
// immutable, as the duplex bookkeeping is managed by a DuplexChallenger
// instance.
type FieldHasher interface {
	// StateWidth returns the number of base field elements in a full hash
	// state dumped by the HashToState method.
	StateWidth() uint

	// StateCapacity returns how many of the state elements may be squeezed
	// as challenge material.
	StateCapacity() uint

	// HashToState hashes a bunch of base field elements to a "hash state",
	// namely a slice of base field elements of StateWidth length, together
	// with the number of permutation invocations spent.
	HashToState(fs ...frontend.Variable) ([]frontend.Variable, uint)
}

// newFieldHasher dispatches the sponge permutation on the field the reduce
// circuit runs over, mirroring the out-of-circuit prover's choice.
func newFieldHasher(engine fields.ArithmeticEngine) FieldHasher {
	switch engine.ECCFieldEnum {
	case fields.ECCBN254:
		mimcHasher := NewMiMCFieldHasher(engine)
		return &mimcHasher
	case fields.ECCM31:
		poseidonHasher := NewPoseidonM31x16Hasher(engine)
		return &poseidonHasher
	case fields.ECCGF2:
		// NOTE(HS) for now we are not doing GF2 shard reduction
		fallthrough
	default:
		panic("unsupported transcript from field type")
	}
}
