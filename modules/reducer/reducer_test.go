package reducer

import (
	"bytes"
	"math/big"
	"testing"

	"ShardReducerCircuit/modules/challenger"
	"ShardReducerCircuit/modules/circuit"
	"ShardReducerCircuit/modules/fields"
	"ShardReducerCircuit/modules/machine"
	"ShardReducerCircuit/modules/pcs"
	"ShardReducerCircuit/modules/verifier"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestWitnessShapeCoversBothMachines(t *testing.T) {
	fieldEnum := fields.ECCBN254
	shape := WitnessShapeFor(fieldEnum, 3)

	baseMachine := machine.BaseMachine()
	recursionMachine := machine.RecursionMachine()
	friPcs := pcs.TwoAdicFriPcs{}

	require.Equal(t, uint(3), shape.NumProofs)
	require.Equal(t, baseMachine.NumChips(), shape.NumChips)
	require.Equal(t, baseMachine.NumPreprocessedChips(), shape.NumPrepChips)
	require.Equal(t,
		recursionMachine.NumPreprocessedChips(), shape.NumRecursionChips)

	require.GreaterOrEqual(t, shape.NumOpenings,
		verifier.StreamLength(fieldEnum, baseMachine, &friPcs))
	require.GreaterOrEqual(t, shape.NumOpenings,
		verifier.StreamLength(fieldEnum, recursionMachine, &friPcs))
}

func TestReduceCircuitCompiles(t *testing.T) {
	shape := WitnessShapeFor(fields.ECCBN254, 2)
	reduceCircuit := NewReduceCircuit(shape)

	cs, err := frontend.Compile(
		ecc.BN254.ScalarField(), r1cs.NewBuilder, &reduceCircuit)
	require.NoError(t, err, "ggs compiling reduce circuit")
	require.Greater(t, cs.GetNbConstraints(), 0)
}

func TestReduceCircuitZeroBatchCompiles(t *testing.T) {
	shape := WitnessShapeFor(fields.ECCBN254, 0)
	reduceCircuit := NewReduceCircuit(shape)

	_, err := frontend.Compile(
		ecc.BN254.ScalarField(), r1cs.NewBuilder, &reduceCircuit)
	require.NoError(t, err, "ggs compiling empty-batch reduce circuit")
}

func TestReduceCircuitCompileDeterminism(t *testing.T) {
	shape := WitnessShapeFor(fields.ECCBN254, 1)

	serialize := func() []byte {
		reduceCircuit := NewReduceCircuit(shape)
		cs, err := frontend.Compile(
			ecc.BN254.ScalarField(), r1cs.NewBuilder, &reduceCircuit)
		require.NoError(t, err)

		var buf bytes.Buffer
		_, err = cs.WriteTo(&buf)
		require.NoError(t, err)
		return buf.Bytes()
	}

	require.Equal(t, serialize(), serialize(),
		"ggs identical witness shapes compiling to different constraint systems")
}

// recordingShardVerifier notes which machine and verifying key every
// verification call receives, constraining nothing.
type recordingShardVerifier struct {
	machines []string
	vks      []*circuit.VerifyingKey
}

func (r *recordingShardVerifier) VerifyShard(
	engine fields.ArithmeticEngine,
	active frontend.Variable,
	vk *circuit.VerifyingKey,
	friPcs *pcs.TwoAdicFriPcs,
	m *machine.Machine,
	transcript *challenger.DuplexChallenger,
	proof *circuit.ShardProof,
	sortedIndices []frontend.Variable,
	prepSortedIndices []frontend.Variable,
	prepDomains []circuit.WitnessDomain,
) {
	r.machines = append(r.machines, m.Name)
	r.vks = append(r.vks, vk)
}

func TestControllerDrivesBothBranchesPerProof(t *testing.T) {
	shape := WitnessShapeFor(fields.ECCBN254, 2)

	recorder := &recordingShardVerifier{}
	reduceCircuit := NewReduceCircuit(shape)
	reduceCircuit.shardVerifier = recorder

	_, err := frontend.Compile(
		ecc.BN254.ScalarField(), r1cs.NewBuilder, &reduceCircuit)
	require.NoError(t, err)

	require.Equal(t,
		[]string{"base", "recursion", "base", "recursion"}, recorder.machines)
	require.Same(t, recorder.vks[0], recorder.vks[2])
	require.Same(t, recorder.vks[1], recorder.vks[3])
	require.NotSame(t, recorder.vks[0], recorder.vks[1])
}

func TestReduceCircuitEndToEndSolves(t *testing.T) {
	fieldEnum := fields.ECCBN254
	rng := rand.New(rand.NewSource(12))

	// one base proof, one recursive proof; the recursive slot carries a
	// one in the shard counter position, which must not trip the reset
	w, shape, err := NewRandomBatch(rng, fieldEnum, []uint{0, 1})
	require.NoError(t, err)

	stmt, err := BuildNativeStatement(fieldEnum, w)
	require.NoError(t, err)

	reduceCircuit := NewReduceCircuit(shape)
	cs, err := frontend.Compile(
		ecc.BN254.ScalarField(), r1cs.NewBuilder, &reduceCircuit)
	require.NoError(t, err, "ggs compiling reduce circuit")

	assignment, err := AssignCircuit(shape, w, stmt)
	require.NoError(t, err)
	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	require.NoError(t, err, "ggs solving witness error")
	require.NoError(t, cs.IsSolved(witness), "R1CS not satisfied.")

	// breaking the base proof's claimed batched evaluation must break
	// satisfiability
	claimSlot := fieldEnum.CommitmentDigestSize() +
		machine.BaseMachine().NumChips()*2*fieldEnum.ChallengeFieldDegree()
	w.Proofs[0].Openings[claimSlot] = new(big.Int).Add(
		w.Proofs[0].Openings[claimSlot], big.NewInt(1))

	tampered, err := AssignCircuit(shape, w, stmt)
	require.NoError(t, err)
	tamperedWitness, err := frontend.NewWitness(&tampered, ecc.BN254.ScalarField())
	require.NoError(t, err, "ggs solving witness error")
	require.Error(t, cs.IsSolved(tamperedWitness),
		"R1CS satisfied on a tampered batched evaluation.")
}

func TestNativeStatementMatchesReferenceAbsorbChain(t *testing.T) {
	fieldEnum := fields.ECCBN254
	rng := rand.New(rand.NewSource(2))

	w, _, err := NewRandomBatch(rng, fieldEnum, []uint{0, 0})
	require.NoError(t, err)

	stmt, err := BuildNativeStatement(fieldEnum, w)
	require.NoError(t, err)

	// replay by hand: key reset, then per base shard the commitment and
	// the public values
	sponge := challenger.NewReferenceSponge(fieldEnum)
	sponge.ObserveCommitment(w.BaseVkCommit)
	for _, proof := range w.Proofs {
		sponge.ObserveCommitment(proof.MainCommit)
		sponge.Observe(proof.PublicValues...)
		sponge.Flush()
	}

	expected := sponge.State()
	for i := range expected {
		require.Zero(t, expected[i].Cmp(stmt.ReconstructState[i]),
			"ggs reconstructed state word %d", i)
	}
}

func TestRecursiveProofsLeaveReconstructUntouched(t *testing.T) {
	fieldEnum := fields.ECCBN254
	rng := rand.New(rand.NewSource(3))

	mixed, _, err := NewRandomBatch(rng, fieldEnum, []uint{0, 1, 1})
	require.NoError(t, err)

	baseOnly := &circuit.NativeReduceWitness{
		Proofs:        mixed.Proofs[:1],
		IsRecursive:   mixed.IsRecursive[:1],
		SortedIndices: mixed.SortedIndices[:1],

		PrepSortedIndices: mixed.PrepSortedIndices,
		PrepDomains:       mixed.PrepDomains,

		RecursionPrepSortedIndices: mixed.RecursionPrepSortedIndices,
		RecursionPrepDomains:       mixed.RecursionPrepDomains,

		BaseVkCommit:      mixed.BaseVkCommit,
		RecursionVkCommit: mixed.RecursionVkCommit,

		InitialReconstructState: mixed.InitialReconstructState,
		WitnessedState:          mixed.WitnessedState,
	}

	mixedStmt, err := BuildNativeStatement(fieldEnum, mixed)
	require.NoError(t, err)
	baseStmt, err := BuildNativeStatement(fieldEnum, baseOnly)
	require.NoError(t, err)

	for i := range mixedStmt.ReconstructState {
		require.Zero(t,
			mixedStmt.ReconstructState[i].Cmp(baseStmt.ReconstructState[i]),
			"ggs recursive proofs perturbing the reconstruction at word %d", i)
	}
}

func TestShardOneResetsReconstruction(t *testing.T) {
	fieldEnum := fields.ECCBN254
	rng := rand.New(rand.NewSource(4))

	w, _, err := NewRandomBatch(rng, fieldEnum, []uint{0})
	require.NoError(t, err)

	// resuming from garbage still converges when the single proof is
	// shard one, since the reset discards the resumed state
	w.InitialReconstructState = make([]*big.Int, fieldEnum.SpongeStateWidth())
	for i := range w.InitialReconstructState {
		w.InitialReconstructState[i] = big.NewInt(int64(1000 + i))
	}

	stmt, err := BuildNativeStatement(fieldEnum, w)
	require.NoError(t, err)

	sponge := challenger.NewReferenceSponge(fieldEnum)
	sponge.ObserveCommitment(w.BaseVkCommit)
	sponge.ObserveCommitment(w.Proofs[0].MainCommit)
	sponge.Observe(w.Proofs[0].PublicValues...)

	expected := sponge.State()
	for i := range expected {
		require.Zero(t, expected[i].Cmp(stmt.ReconstructState[i]))
	}
}

func TestStatementLink(t *testing.T) {
	fieldEnum := fields.ECCBN254
	rng := rand.New(rand.NewSource(5))

	w, _, err := NewRandomBatch(rng, fieldEnum, []uint{0, 0, 0})
	require.NoError(t, err)

	stmt, err := BuildNativeStatement(fieldEnum, w)
	require.NoError(t, err)
	require.NoError(t, CheckStatementLink(fieldEnum, stmt, w.BaseVkCommit))

	tampered := *stmt
	tampered.WitnessedState = copyNative(stmt.WitnessedState)
	tampered.WitnessedState[0] = new(big.Int).Add(
		tampered.WitnessedState[0], big.NewInt(1))
	require.Error(t, CheckStatementLink(fieldEnum, &tampered, w.BaseVkCommit))

	midChain := *stmt
	midChain.PreReconstructState = copyNative(stmt.PreReconstructState)
	midChain.PreReconstructState[0] = new(big.Int).Add(
		midChain.PreReconstructState[0], big.NewInt(1))
	require.Error(t, CheckStatementLink(fieldEnum, &midChain, w.BaseVkCommit))
}

func TestStatementChainingRejections(t *testing.T) {
	fieldEnum := fields.ECCBN254

	t.Run("broken pc chain", func(t *testing.T) {
		rng := rand.New(rand.NewSource(6))
		w, _, err := NewRandomBatch(rng, fieldEnum, []uint{0, 0})
		require.NoError(t, err)

		w.Proofs[1].PublicValues[circuit.START_PC_OFFSET] = new(big.Int).Add(
			w.Proofs[1].PublicValues[circuit.START_PC_OFFSET], big.NewInt(1))
		_, err = BuildNativeStatement(fieldEnum, w)
		require.ErrorContains(t, err, "not chaining")
	})

	t.Run("early halt", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		w, _, err := NewRandomBatch(rng, fieldEnum, []uint{0, 0})
		require.NoError(t, err)

		w.Proofs[0].PublicValues[circuit.EXIT_CODE_OFFSET] = big.NewInt(1)
		_, err = BuildNativeStatement(fieldEnum, w)
		require.ErrorContains(t, err, "exit code")
	})

	t.Run("diverging digest", func(t *testing.T) {
		rng := rand.New(rand.NewSource(8))
		w, _, err := NewRandomBatch(rng, fieldEnum, []uint{0, 0})
		require.NoError(t, err)

		offset := circuit.COMMITTED_VALUES_DIGEST_OFFSET
		w.Proofs[0].PublicValues[offset] = big.NewInt(1)
		w.Proofs[1].PublicValues[offset] = big.NewInt(2)
		_, err = BuildNativeStatement(fieldEnum, w)
		require.ErrorContains(t, err, "digest")
	})
}

func TestRecursionTranscriptSeparation(t *testing.T) {
	fieldEnum := fields.ECCBN254
	rng := rand.New(rand.NewSource(11))

	w, _, err := NewRandomBatch(rng, fieldEnum, []uint{1, 1})
	require.NoError(t, err)

	// each recursive verification sees only the recursion key and its own
	// proof; forks never bleed into the canonical transcript or each other
	canonical := challenger.NewReferenceSponge(fieldEnum)
	canonical.ObserveCommitment(w.RecursionVkCommit)
	initState := canonical.State()

	for _, proof := range w.Proofs {
		fork := canonical.Fork()
		fork.ObserveCommitment(proof.MainCommit)
		fork.Observe(proof.PublicValues...)

		expected := challenger.NewReferenceSponge(fieldEnum)
		expected.ObserveCommitment(w.RecursionVkCommit)
		expected.ObserveCommitment(proof.MainCommit)
		expected.Observe(proof.PublicValues...)

		forkState := fork.State()
		expectedState := expected.State()
		for i := range forkState {
			require.Zero(t, forkState[i].Cmp(expectedState[i]))
		}
	}

	after := canonical.State()
	for i := range after {
		require.Zero(t, after[i].Cmp(initState[i]),
			"ggs recursion fork bleeding into the canonical transcript")
	}
}

func TestZeroBatchNativeStatement(t *testing.T) {
	fieldEnum := fields.ECCBN254
	rng := rand.New(rand.NewSource(9))

	w, _, err := NewRandomBatch(rng, fieldEnum, nil)
	require.NoError(t, err)

	stmt, err := BuildNativeStatement(fieldEnum, w)
	require.NoError(t, err)

	for i := range stmt.ReconstructState {
		require.Zero(t,
			stmt.ReconstructState[i].Cmp(w.InitialReconstructState[i]))
	}
	require.Zero(t, stmt.ExitCode.Sign())
}

func TestAssignCircuitShapeChecks(t *testing.T) {
	fieldEnum := fields.ECCBN254
	rng := rand.New(rand.NewSource(10))

	w, shape, err := NewRandomBatch(rng, fieldEnum, []uint{0})
	require.NoError(t, err)

	stmt, err := BuildNativeStatement(fieldEnum, w)
	require.NoError(t, err)

	assignment, err := AssignCircuit(shape, w, stmt)
	require.NoError(t, err)
	require.Len(t, assignment.Witness.Proofs, 1)

	smaller := shape
	smaller.NumProofs = 2
	_, err = AssignCircuit(smaller, w, stmt)
	require.Error(t, err)
}
