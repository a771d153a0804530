package reducer

import (
	"fmt"

	"ShardReducerCircuit/modules/challenger"
	"ShardReducerCircuit/modules/circuit"
	"ShardReducerCircuit/modules/fields"
	"ShardReducerCircuit/modules/machine"
	"ShardReducerCircuit/modules/pcs"
	"ShardReducerCircuit/modules/verifier"

	"github.com/consensys/gnark/frontend"
)

// ReduceCircuit folds a batch of shard proofs into one aggregated statement.
// Every proof slot carries both the base-case and the recursive-case
// verification statically; the per-proof flag selects which transcript
// evolution survives. The public section is the reduced statement a parent
// reduce invocation, or the final on-chain verifier, consumes.
type ReduceCircuit struct {
	Witness circuit.ReduceWitness

	CommittedValuesDigest []frontend.Variable `gnark:",public"`
	StartPc               frontend.Variable   `gnark:",public"`
	NextPc                frontend.Variable   `gnark:",public"`
	ExitCode              frontend.Variable   `gnark:",public"`

	PreReconstructState   []frontend.Variable `gnark:",public"`
	ReconstructState      []frontend.Variable `gnark:",public"`
	WitnessedState        []frontend.Variable `gnark:",public"`
	RecursionVkCommitment []frontend.Variable `gnark:",public"`

	fieldEnum     fields.ECCFieldEnum
	shardVerifier verifier.ShardVerifier
}

// NewReduceCircuit shapes a reduce circuit for compilation or assignment.
// The opening stream width of the shape must cover both machines, see
// WitnessShapeFor.
func NewReduceCircuit(shape circuit.WitnessShape) ReduceCircuit {
	digestWords := circuit.PV_DIGEST_NUM_WORDS * circuit.WORD_SIZE
	stateWidth := shape.FieldEnum.SpongeStateWidth()

	return ReduceCircuit{
		Witness: circuit.NewReduceWitnessPlaceholder(shape),

		CommittedValuesDigest: make([]frontend.Variable, digestWords),

		PreReconstructState:   make([]frontend.Variable, stateWidth),
		ReconstructState:      make([]frontend.Variable, stateWidth),
		WitnessedState:        make([]frontend.Variable, stateWidth),
		RecursionVkCommitment: make([]frontend.Variable, shape.FieldEnum.CommitmentDigestSize()),

		fieldEnum:     shape.FieldEnum,
		shardVerifier: verifier.StarkShardVerifier{},
	}
}

// WitnessShapeFor pins the compile-time dimensions of a reduce batch: chip
// counts come from the two machines and the opening stream width is sized to
// whichever machine consumes more.
func WitnessShapeFor(
	fieldEnum fields.ECCFieldEnum, numProofs uint,
) circuit.WitnessShape {
	baseMachine := machine.BaseMachine()
	recursionMachine := machine.RecursionMachine()
	friPcs := pcs.TwoAdicFriPcs{}

	return circuit.WitnessShape{
		FieldEnum: fieldEnum,

		NumProofs: numProofs,
		NumOpenings: max(
			verifier.StreamLength(fieldEnum, baseMachine, &friPcs),
			verifier.StreamLength(fieldEnum, recursionMachine, &friPcs),
		),
		NumChips:          baseMachine.NumChips(),
		NumPrepChips:      baseMachine.NumPreprocessedChips(),
		NumRecursionChips: recursionMachine.NumPreprocessedChips(),
	}
}

func (c *ReduceCircuit) Define(api frontend.API) error {
	engine := fields.ArithmeticEngine{ECCFieldEnum: c.fieldEnum, API: api}

	friConfig, err := pcs.NewFriConfigTable(engine, pcs.InnerParams())
	if err != nil {
		return err
	}
	friPcs := pcs.TwoAdicFriPcs{Config: friConfig}

	out := buildReduce(engine, &friPcs, c.shardVerifier, &c.Witness)

	for i, word := range out.committedValuesDigest {
		engine.AssertIsEqual(c.CommittedValuesDigest[i], word)
	}
	engine.AssertIsEqual(c.StartPc, out.startPc)
	engine.AssertIsEqual(c.NextPc, out.nextPc)
	engine.AssertIsEqual(c.ExitCode, out.exitCode)

	assertStatesEq(engine, c.PreReconstructState, c.Witness.InitialReconstructState)
	assertStatesEq(engine, c.ReconstructState, out.reconstructState)
	assertStatesEq(engine, c.WitnessedState, c.Witness.WitnessedState)
	for i, e := range c.Witness.RecursionVk.Commitment {
		engine.AssertIsEqual(c.RecursionVkCommitment[i], e)
	}

	return nil
}

// reduceOutputs is the computed side of the public statement.
type reduceOutputs struct {
	committedValuesDigest []frontend.Variable
	startPc               frontend.Variable
	nextPc                frontend.Variable
	exitCode              frontend.Variable
	reconstructState      []frontend.Variable
}

// buildReduce walks the proof batch in order and emits, per proof, both
// verification branches plus the transcript bookkeeping that distinguishes
// them:
//   - a base proof is checked against a fork of the witnessed transcript,
//     and its commitment and statement are absorbed into the reconstructed
//     transcript, which first resets to the post-key state when the proof
//     declares itself shard one;
//   - a recursive proof is checked against a fork of the canonical recursion
//     transcript and leaves the reconstructed transcript untouched.
//
// Both verifications are emitted for every proof; the per-proof flag feeds
// each as its activity bit, so only the matching branch constrains.
func buildReduce(
	engine fields.ArithmeticEngine,
	friPcs *pcs.TwoAdicFriPcs,
	shardVerifier verifier.ShardVerifier,
	w *circuit.ReduceWitness,
) reduceOutputs {
	baseMachine := machine.BaseMachine()
	recursionMachine := machine.RecursionMachine()

	// the reconstructed transcript resumes mid-chain from the witnessed
	// resume state; shard one resets it to the post-key state instead
	reconstruct := challenger.NewDuplexChallenger(engine)
	reconstruct.SetState(w.InitialReconstructState)

	resetTranscript := challenger.NewDuplexChallenger(engine)
	resetTranscript.ObserveCommitment(w.BaseVk.Commitment)

	// base proofs verify against the transcript state the whole execution
	// is claimed to produce, supplied as witness and re-checked downstream
	witnessed := challenger.NewDuplexChallenger(engine)
	witnessed.SetState(w.WitnessedState)

	// recursive proofs verify against the canonical recursion transcript,
	// which only ever absorbs the recursion verifying key
	recursion := challenger.NewDuplexChallenger(engine)
	recursion.ObserveCommitment(w.RecursionVk.Commitment)

	out := reduceOutputs{
		committedValuesDigest: zeroDigest(),
		startPc:               frontend.Variable(0),
		nextPc:                frontend.Variable(0),
		exitCode:              frontend.Variable(0),
	}

	for i := range w.Proofs {
		proof := &w.Proofs[i]
		isRecursive := w.IsRecursive[i]
		engine.AssertIsBoolean(isRecursive)
		isBase := engine.Sub(1, isRecursive)

		// both branches are emitted statically and read the opening stream
		// from the top; the activity bit keeps only one logically binding
		baseProof := *proof
		baseProof.Openings.Reset()
		recursiveProof := *proof
		recursiveProof.Openings.Reset()

		baseTranscript := witnessed.Fork()
		shardVerifier.VerifyShard(
			engine, isBase, &w.BaseVk, friPcs, baseMachine, baseTranscript,
			&baseProof,
			w.SortedIndices[i],
			w.PrepSortedIndices, w.PrepDomains,
		)

		recursionTranscript := recursion.Fork()
		shardVerifier.VerifyShard(
			engine, isRecursive, &w.RecursionVk, friPcs, recursionMachine,
			recursionTranscript,
			&recursiveProof,
			w.SortedIndices[i][:recursionMachine.NumChips()],
			w.RecursionPrepSortedIndices, w.RecursionPrepDomains,
		)

		// reconstructed transcript evolution for the base branch: reset on
		// shard one, then absorb the commitment and the shard statement.
		// Only base proofs carry a shard counter in slot 32; for a
		// recursive proof that slot is inner statement data, so the reset
		// condition carries the branch bit
		shard := proof.PublicValues[circuit.SHARD_INDEX_OFFSET]
		isFirstShard := engine.Mul(isBase, engine.IsZero(engine.Sub(shard, 1)))

		absorbing := challenger.SelectChallenger(
			engine, isFirstShard, resetTranscript, reconstruct)
		absorbing.ObserveCommitment(proof.MainCommit)
		absorbing.Observe(proof.PublicValues...)
		absorbing.Flush()

		// recursive proofs leave the reconstructed transcript as-is
		reconstruct = challenger.SelectChallenger(
			engine, isRecursive, reconstruct, absorbing)

		chainStatement(engine, &out, proof, i == 0, i == len(w.Proofs)-1)
	}

	out.reconstructState = reconstruct.State()
	return out
}

// chainStatement threads one proof's public values into the aggregate
// statement: program counters chain head to tail, the committed values
// digest may transition from zero exactly once and then stays pinned, and
// only the last proof may carry a nonzero exit code.
func chainStatement(
	engine fields.ArithmeticEngine,
	out *reduceOutputs,
	proof *circuit.ShardProof,
	first bool,
	last bool,
) {
	digest := proof.PublicValues[circuit.COMMITTED_VALUES_DIGEST_OFFSET : circuit.COMMITTED_VALUES_DIGEST_OFFSET+
		circuit.PV_DIGEST_NUM_WORDS*circuit.WORD_SIZE]
	startPc := proof.PublicValues[circuit.START_PC_OFFSET]
	nextPc := proof.PublicValues[circuit.NEXT_PC_OFFSET]
	exitCode := proof.PublicValues[circuit.EXIT_CODE_OFFSET]

	if first {
		out.startPc = startPc
	} else {
		engine.AssertIsEqual(startPc, out.nextPc)
	}
	out.nextPc = nextPc

	if !last {
		engine.AssertIsEqual(exitCode, 0)
	}
	out.exitCode = exitCode

	// once some proof committed a nonzero digest, later proofs must agree
	prevSet := digestIsNonZero(engine, out.committedValuesDigest)
	for j, word := range digest {
		diff := engine.Sub(word, out.committedValuesDigest[j])
		engine.AssertIsEqual(engine.Mul(diff, prevSet), 0)
	}
	out.committedValuesDigest = digest
}

func digestIsNonZero(
	engine fields.ArithmeticEngine, digest []frontend.Variable,
) frontend.Variable {
	allZero := frontend.Variable(1)
	for _, word := range digest {
		allZero = engine.Mul(allZero, engine.IsZero(word))
	}
	return engine.Sub(1, allZero)
}

func zeroDigest() []frontend.Variable {
	digest := make([]frontend.Variable, circuit.PV_DIGEST_NUM_WORDS*circuit.WORD_SIZE)
	for i := range digest {
		digest[i] = 0
	}
	return digest
}

func assertStatesEq(
	engine fields.ArithmeticEngine, lhs, rhs []frontend.Variable,
) {
	if len(lhs) != len(rhs) {
		panic(fmt.Sprintf(
			"transcript state widths %d and %d mismatching", len(lhs), len(rhs)))
	}
	for i := range lhs {
		engine.AssertIsEqual(lhs[i], rhs[i])
	}
}
