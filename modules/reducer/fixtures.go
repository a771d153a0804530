package reducer

import (
	"fmt"
	"math/big"

	"ShardReducerCircuit/modules/challenger"
	"ShardReducerCircuit/modules/circuit"
	"ShardReducerCircuit/modules/fields"
	"ShardReducerCircuit/modules/machine"
	"ShardReducerCircuit/modules/pcs"
	"ShardReducerCircuit/modules/verifier"

	"golang.org/x/exp/rand"
)

// NewRandomBatch assembles a structurally coherent reduce witness from
// random proof fixtures: shard counters increment across the base proofs,
// program counters chain head to tail, every proof carries the same
// committed values digest, and the transcript states are seeded for a
// self-contained chain. One flag per proof, zero meaning base case.
func NewRandomBatch(
	rng *rand.Rand,
	fieldEnum fields.ECCFieldEnum,
	recursiveFlags []uint,
) (*circuit.NativeReduceWitness, circuit.WitnessShape, error) {
	shape := WitnessShapeFor(fieldEnum, uint(len(recursiveFlags)))

	w := &circuit.NativeReduceWitness{
		Proofs:        make([]*circuit.NativeShardProof, len(recursiveFlags)),
		IsRecursive:   append([]uint(nil), recursiveFlags...),
		SortedIndices: make([][]uint, len(recursiveFlags)),

		PrepSortedIndices: circuit.IdentityOrdering(shape.NumPrepChips),
		PrepDomains:       circuit.UniformDomains(shape.NumPrepChips, 10),

		RecursionPrepSortedIndices: circuit.IdentityOrdering(shape.NumRecursionChips),
		RecursionPrepDomains:       circuit.UniformDomains(shape.NumRecursionChips, 10),

		BaseVkCommit:      randomCommitment(rng, fieldEnum),
		RecursionVkCommit: randomCommitment(rng, fieldEnum),
	}

	var sharedDigest []*big.Int
	var prevNextPc *big.Int
	shardCounter := uint64(1)

	for i, flag := range recursiveFlags {
		var proof *circuit.NativeShardProof
		switch flag {
		case 0:
			proof = circuit.NewRandomBaseProof(
				rng, fieldEnum, shardCounter, shape.NumOpenings)
			shardCounter++
		case 1:
			proof = circuit.NewRandomRecursiveProof(
				rng, fieldEnum, shape.NumOpenings)
			// slot 32 of a recursive proof is inner statement data, not a
			// shard counter; pin it to one so the fixtures cover the
			// branch gating of the first-shard reset
			proof.PublicValues[circuit.SHARD_INDEX_OFFSET] = big.NewInt(1)
		default:
			return nil, circuit.WitnessShape{}, fmt.Errorf(
				"proof %d: recursive flag %d not boolean", i, flag)
		}

		if sharedDigest == nil {
			sharedDigest = proof.PublicValues[circuit.COMMITTED_VALUES_DIGEST_OFFSET : circuit.COMMITTED_VALUES_DIGEST_OFFSET+
				circuit.PV_DIGEST_NUM_WORDS*circuit.WORD_SIZE]
		} else {
			for j, word := range sharedDigest {
				proof.PublicValues[circuit.COMMITTED_VALUES_DIGEST_OFFSET+uint(j)] =
					new(big.Int).Set(word)
			}
		}

		if prevNextPc != nil {
			proof.PublicValues[circuit.START_PC_OFFSET] = new(big.Int).Set(prevNextPc)
		}
		prevNextPc = proof.PublicValues[circuit.NEXT_PC_OFFSET]
		proof.PublicValues[circuit.EXIT_CODE_OFFSET] = big.NewInt(0)

		w.Proofs[i] = proof
		w.SortedIndices[i] = circuit.IdentityOrdering(shape.NumChips)
	}

	if err := SeedTranscriptStates(fieldEnum, w); err != nil {
		return nil, circuit.WitnessShape{}, err
	}

	// the opening argument needs two-adic domains up to the machines' max
	// degree; a field without them carries the transcript side only, so
	// its streams stay random
	if fieldEnum.TwoAdicity() >= machine.BaseMachine().MaxLogDegree() {
		if err := groundBatchStreams(fieldEnum, w); err != nil {
			return nil, circuit.WitnessShape{}, err
		}
	}

	return w, shape, nil
}

// groundBatchStreams rewrites every proof's derived opening slots so its
// active verification branch accepts: base proofs against a fork of the
// witnessed transcript, recursive proofs against a fork of the recursion
// transcript. Must run after the transcript states are seeded, since the
// base branch replays from the witnessed state.
func groundBatchStreams(
	fieldEnum fields.ECCFieldEnum, w *circuit.NativeReduceWitness,
) error {
	params := pcs.InnerParams()

	witnessed := challenger.NewReferenceSponge(fieldEnum)
	witnessed.SetState(w.WitnessedState)

	recursion := challenger.NewReferenceSponge(fieldEnum)
	recursion.ObserveCommitment(w.RecursionVkCommit)

	for i, proof := range w.Proofs {
		var transcript *challenger.ReferenceSponge
		var m *machine.Machine
		if w.IsRecursive[i] == 1 {
			transcript = recursion.Fork()
			m = machine.RecursionMachine()
		} else {
			transcript = witnessed.Fork()
			m = machine.BaseMachine()
		}

		if err := verifier.GroundOpeningStream(
			fieldEnum, params, m, transcript, proof); err != nil {
			return fmt.Errorf("proof %d: %w", i, err)
		}
	}
	return nil
}

func randomCommitment(rng *rand.Rand, fieldEnum fields.ECCFieldEnum) []*big.Int {
	out := make([]*big.Int, fieldEnum.CommitmentDigestSize())
	for i := range out {
		out[i] = circuit.RandomFieldElement(rng, fieldEnum)
	}
	return out
}
