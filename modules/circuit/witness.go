package circuit

import (
	"fmt"
	"math/big"

	"ShardReducerCircuit/modules/fields"

	"github.com/consensys/gnark/frontend"
)

// ReduceWitness is the full witness table of one reduce program, in the
// fixed read order the controller consumes it:
//  1. the shard proofs,
//  2. the base-vs-recursive flag per proof (0 = base),
//  3. the column-order metadata per proof,
//  4. the witnessed base transcript state,
//  5. the reconstructed-transcript state to resume from,
//  6. base machine preprocessed column order and domains,
//  7. recursion machine preprocessed column order and domains,
//  8. the base verifying key,
//  9. the recursion verifying key.
type ReduceWitness struct {
	Proofs        []ShardProof
	IsRecursive   []frontend.Variable
	SortedIndices [][]frontend.Variable

	WitnessedState          []frontend.Variable
	InitialReconstructState []frontend.Variable

	PrepSortedIndices []frontend.Variable
	PrepDomains       []WitnessDomain

	RecursionPrepSortedIndices []frontend.Variable
	RecursionPrepDomains       []WitnessDomain

	BaseVk      VerifyingKey
	RecursionVk VerifyingKey
}

// WitnessShape pins every batch dimension that must be known at circuit
// compile time.
type WitnessShape struct {
	FieldEnum fields.ECCFieldEnum

	NumProofs         uint
	NumOpenings       uint
	NumChips          uint
	NumPrepChips      uint
	NumRecursionChips uint
}

// NewReduceWitnessPlaceholder shapes an empty witness table for compilation.
func NewReduceWitnessPlaceholder(shape WitnessShape) ReduceWitness {
	w := ReduceWitness{
		Proofs:        make([]ShardProof, shape.NumProofs),
		IsRecursive:   make([]frontend.Variable, shape.NumProofs),
		SortedIndices: make([][]frontend.Variable, shape.NumProofs),

		WitnessedState:          make([]frontend.Variable, shape.FieldEnum.SpongeStateWidth()),
		InitialReconstructState: make([]frontend.Variable, shape.FieldEnum.SpongeStateWidth()),

		PrepSortedIndices: make([]frontend.Variable, shape.NumPrepChips),
		PrepDomains:       make([]WitnessDomain, shape.NumPrepChips),

		RecursionPrepSortedIndices: make([]frontend.Variable, shape.NumRecursionChips),
		RecursionPrepDomains:       make([]WitnessDomain, shape.NumRecursionChips),

		BaseVk:      NewVerifyingKeyPlaceholder(shape.FieldEnum),
		RecursionVk: NewVerifyingKeyPlaceholder(shape.FieldEnum),
	}

	for i := range w.Proofs {
		w.Proofs[i] = NewShardProofPlaceholder(shape.FieldEnum, shape.NumOpenings)
		w.SortedIndices[i] = make([]frontend.Variable, shape.NumChips)
	}

	return w
}

// NativeShardProof is the out-of-circuit value form of one shard proof, as
// produced by the prover or read from a proof file.
type NativeShardProof struct {
	MainCommit   []*big.Int
	PublicValues []*big.Int
	Openings     []*big.Int
}

// Shape checks the native proof against the compile-time witness shape.
func (p *NativeShardProof) Shape(shape WitnessShape) error {
	if uint(len(p.MainCommit)) != shape.FieldEnum.CommitmentDigestSize() {
		return fmt.Errorf("main commit width %d, want %d",
			len(p.MainCommit), shape.FieldEnum.CommitmentDigestSize())
	}
	if uint(len(p.PublicValues)) != NUM_PUBLIC_VALUES {
		return fmt.Errorf("public values length %d, want %d",
			len(p.PublicValues), NUM_PUBLIC_VALUES)
	}
	if uint(len(p.Openings)) != shape.NumOpenings {
		return fmt.Errorf("opening stream length %d, want %d",
			len(p.Openings), shape.NumOpenings)
	}
	return nil
}

// Assign lifts the native proof into its witness assignment form.
func (p *NativeShardProof) Assign() ShardProof {
	return ShardProof{
		MainCommit:   assignSlice(p.MainCommit),
		PublicValues: assignSlice(p.PublicValues),
		Openings: OpeningStream{
			Idx:   0,
			Elems: assignSlice(p.Openings),
		},
	}
}

// ShardIndex reads the declared 1-based shard counter of a base-case proof.
func (p *NativeShardProof) ShardIndex() uint64 {
	return p.PublicValues[SHARD_INDEX_OFFSET].Uint64()
}

// NativeReduceWitness mirrors ReduceWitness over native values, the form the
// CLI and the tests assemble before assignment.
type NativeReduceWitness struct {
	Proofs        []*NativeShardProof
	IsRecursive   []uint
	SortedIndices [][]uint

	WitnessedState          []*big.Int
	InitialReconstructState []*big.Int

	PrepSortedIndices []uint
	PrepDomains       [][2]uint64

	RecursionPrepSortedIndices []uint
	RecursionPrepDomains       [][2]uint64

	BaseVkCommit      []*big.Int
	RecursionVkCommit []*big.Int
}

// Assign lifts the whole native witness into assignment form. Length
// mismatches against the shape are build-time errors.
func (w *NativeReduceWitness) Assign(shape WitnessShape) (ReduceWitness, error) {
	if uint(len(w.Proofs)) != shape.NumProofs {
		return ReduceWitness{}, fmt.Errorf(
			"batch size %d, circuit compiled for %d", len(w.Proofs), shape.NumProofs)
	}
	if len(w.IsRecursive) != len(w.Proofs) ||
		len(w.SortedIndices) != len(w.Proofs) {
		return ReduceWitness{}, fmt.Errorf(
			"per-proof metadata length mismatching batch size %d", len(w.Proofs))
	}

	out := NewReduceWitnessPlaceholder(shape)
	for i, proof := range w.Proofs {
		if err := proof.Shape(shape); err != nil {
			return ReduceWitness{}, fmt.Errorf("proof %d: %w", i, err)
		}
		if uint(len(w.SortedIndices[i])) != shape.NumChips {
			return ReduceWitness{}, fmt.Errorf(
				"proof %d: %d sorted indices, want %d",
				i, len(w.SortedIndices[i]), shape.NumChips)
		}

		out.Proofs[i] = proof.Assign()
		out.IsRecursive[i] = w.IsRecursive[i]
		for j, idx := range w.SortedIndices[i] {
			out.SortedIndices[i][j] = idx
		}
	}

	copy(out.WitnessedState, assignSlice(w.WitnessedState))
	copy(out.InitialReconstructState, assignSlice(w.InitialReconstructState))

	if uint(len(w.PrepSortedIndices)) != shape.NumPrepChips ||
		uint(len(w.PrepDomains)) != shape.NumPrepChips {
		return ReduceWitness{}, fmt.Errorf(
			"base preprocessed metadata length mismatching %d chips", shape.NumPrepChips)
	}
	for i := range w.PrepSortedIndices {
		out.PrepSortedIndices[i] = w.PrepSortedIndices[i]
		out.PrepDomains[i] = WitnessDomain{
			LogSize: w.PrepDomains[i][0],
			Shift:   w.PrepDomains[i][1],
		}
	}

	if uint(len(w.RecursionPrepSortedIndices)) != shape.NumRecursionChips ||
		uint(len(w.RecursionPrepDomains)) != shape.NumRecursionChips {
		return ReduceWitness{}, fmt.Errorf(
			"recursion preprocessed metadata length mismatching %d chips",
			shape.NumRecursionChips)
	}
	for i := range w.RecursionPrepSortedIndices {
		out.RecursionPrepSortedIndices[i] = w.RecursionPrepSortedIndices[i]
		out.RecursionPrepDomains[i] = WitnessDomain{
			LogSize: w.RecursionPrepDomains[i][0],
			Shift:   w.RecursionPrepDomains[i][1],
		}
	}

	copy(out.BaseVk.Commitment, assignSlice(w.BaseVkCommit))
	copy(out.RecursionVk.Commitment, assignSlice(w.RecursionVkCommit))

	return out, nil
}

func assignSlice(vs []*big.Int) []frontend.Variable {
	out := make([]frontend.Variable, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
