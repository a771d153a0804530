package verifier

import (
	"fmt"
	"math/big"
	"testing"

	"ShardReducerCircuit/modules/challenger"
	"ShardReducerCircuit/modules/circuit"
	"ShardReducerCircuit/modules/fields"
	"ShardReducerCircuit/modules/machine"
	"ShardReducerCircuit/modules/pcs"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

type ShardVerifierTestingCircuit struct {
	Active frontend.Variable

	Vk    circuit.VerifyingKey
	Proof circuit.ShardProof

	SortedIndices     []frontend.Variable
	PrepSortedIndices []frontend.Variable
	PrepDomains       []circuit.WitnessDomain
}

func NewShardVerifierTestingCircuit(
	fieldEnum fields.ECCFieldEnum, m *machine.Machine, friPcs *pcs.TwoAdicFriPcs,
) ShardVerifierTestingCircuit {
	return ShardVerifierTestingCircuit{
		Vk: circuit.NewVerifyingKeyPlaceholder(fieldEnum),
		Proof: circuit.NewShardProofPlaceholder(
			fieldEnum, StreamLength(fieldEnum, m, friPcs)),

		SortedIndices:     make([]frontend.Variable, m.NumChips()),
		PrepSortedIndices: make([]frontend.Variable, m.NumPreprocessedChips()),
		PrepDomains:       make([]circuit.WitnessDomain, m.NumPreprocessedChips()),
	}
}

func (c *ShardVerifierTestingCircuit) Define(api frontend.API) error {
	engine := fields.ArithmeticEngine{ECCFieldEnum: fields.ECCBN254, API: api}

	friConfig, err := pcs.NewFriConfigTable(engine, pcs.InnerParams())
	if err != nil {
		return err
	}
	friPcs := pcs.TwoAdicFriPcs{Config: friConfig}

	m := machine.BaseMachine()
	transcript := challenger.NewDuplexChallenger(engine)

	verifier := StarkShardVerifier{}
	verifier.VerifyShard(
		engine, c.Active, &c.Vk, &friPcs, m, transcript, &c.Proof,
		c.SortedIndices, c.PrepSortedIndices, c.PrepDomains,
	)

	// one verification pass consumes the whole opening stream, no more
	if remaining := c.Proof.Openings.Remaining(); remaining != 0 {
		return fmt.Errorf("%d opening stream elements left unread", remaining)
	}
	return nil
}

func TestVerifyShardCompiles(t *testing.T) {
	fieldEnum := fields.ECCBN254
	m := machine.BaseMachine()
	friPcs := pcs.TwoAdicFriPcs{}

	testingCircuit := NewShardVerifierTestingCircuit(fieldEnum, m, &friPcs)
	cs, err := frontend.Compile(
		ecc.BN254.ScalarField(), r1cs.NewBuilder, &testingCircuit)
	require.NoError(t, err, "ggs compiling shard verifier circuit")
	require.Greater(t, cs.GetNbConstraints(), 0)
}

func TestVerifyShardStreamLength(t *testing.T) {
	fieldEnum := fields.ECCBN254
	m := machine.BaseMachine()
	friPcs := pcs.TwoAdicFriPcs{}

	// quotient digest, per-chip opening pairs, batched claim, then the
	// opening argument's own reads
	expected := fieldEnum.CommitmentDigestSize() +
		m.NumChips()*2*fieldEnum.ChallengeFieldDegree() +
		fieldEnum.ChallengeFieldDegree() +
		m.MaxLogDegree()*fieldEnum.CommitmentDigestSize() +
		fieldEnum.ChallengeFieldDegree() + 1

	require.Equal(t, expected, StreamLength(fieldEnum, m, &friPcs))
}

func TestVerifyShardMetadataShapePanics(t *testing.T) {
	m := machine.BaseMachine()
	friPcs := pcs.TwoAdicFriPcs{}

	testingCircuit := NewShardVerifierTestingCircuit(fields.ECCBN254, m, &friPcs)
	testingCircuit.SortedIndices = testingCircuit.SortedIndices[1:]

	_, err := frontend.Compile(
		ecc.BN254.ScalarField(), r1cs.NewBuilder, &testingCircuit)
	require.Error(t, err)
}

// verifierAssignment lifts a native proof plus column metadata into the
// testing circuit's assignment form.
func verifierAssignment(
	rng *rand.Rand,
	fieldEnum fields.ECCFieldEnum,
	m *machine.Machine,
	proof *circuit.NativeShardProof,
	prepLogSize uint64,
	prepShift uint64,
) ShardVerifierTestingCircuit {
	vkCommit := make([]frontend.Variable, fieldEnum.CommitmentDigestSize())
	for i := range vkCommit {
		vkCommit[i] = circuit.RandomFieldElement(rng, fieldEnum)
	}

	prepDomains := make([]circuit.WitnessDomain, m.NumPreprocessedChips())
	for i := range prepDomains {
		prepDomains[i] = circuit.WitnessDomain{
			LogSize: prepLogSize, Shift: prepShift,
		}
	}

	return ShardVerifierTestingCircuit{
		Vk:    circuit.VerifyingKey{Commitment: vkCommit},
		Proof: proof.Assign(),

		SortedIndices:     liftOrdering(circuit.IdentityOrdering(m.NumChips())),
		PrepSortedIndices: liftOrdering(circuit.IdentityOrdering(m.NumPreprocessedChips())),
		PrepDomains:       prepDomains,
	}
}

func liftOrdering(vs []uint) []frontend.Variable {
	out := make([]frontend.Variable, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func TestVerifyShardActivityGating(t *testing.T) {
	fieldEnum := fields.ECCBN254
	m := machine.BaseMachine()
	friPcs := pcs.TwoAdicFriPcs{}
	rng := rand.New(rand.NewSource(20))

	testingCircuit := NewShardVerifierTestingCircuit(fieldEnum, m, &friPcs)
	cs, err := frontend.Compile(
		ecc.BN254.ScalarField(), r1cs.NewBuilder, &testingCircuit)
	require.NoError(t, err, "ggs compiling shard verifier circuit")

	// an ungrounded random stream and a garbage preprocessed shift satisfy
	// nothing, so the slot must only solve with the branch switched off
	proof := circuit.NewRandomBaseProof(
		rng, fieldEnum, 1, StreamLength(fieldEnum, m, &friPcs))
	assignment := verifierAssignment(rng, fieldEnum, m, proof, 10, 999)

	assignment.Active = 0
	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	require.NoError(t, err, "ggs solving witness error")
	require.NoError(t, cs.IsSolved(witness),
		"ggs inactive branch still constraining the slot")

	assignment.Active = 1
	witness, err = frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	require.NoError(t, err, "ggs solving witness error")
	require.Error(t, cs.IsSolved(witness),
		"ggs active branch accepting a garbage stream")
}

func TestVerifyShardGroundedStreamSolves(t *testing.T) {
	fieldEnum := fields.ECCBN254
	m := machine.BaseMachine()
	friPcs := pcs.TwoAdicFriPcs{}
	rng := rand.New(rand.NewSource(21))

	testingCircuit := NewShardVerifierTestingCircuit(fieldEnum, m, &friPcs)
	cs, err := frontend.Compile(
		ecc.BN254.ScalarField(), r1cs.NewBuilder, &testingCircuit)
	require.NoError(t, err, "ggs compiling shard verifier circuit")

	// the testing circuit verifies from a fresh transcript, so the native
	// replay grounds against a fresh sponge
	proof := circuit.NewRandomBaseProof(
		rng, fieldEnum, 1, StreamLength(fieldEnum, m, &friPcs))
	require.NoError(t, GroundOpeningStream(
		fieldEnum, pcs.InnerParams(), m,
		challenger.NewReferenceSponge(fieldEnum), proof,
	))

	assignment := verifierAssignment(rng, fieldEnum, m, proof, 10, 1)
	assignment.Active = 1

	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	require.NoError(t, err, "ggs solving witness error")
	require.NoError(t, cs.IsSolved(witness),
		"ggs grounded stream not satisfying the active branch")

	// flipping the grinding witness must break the proof of work
	powSlot := StreamLength(fieldEnum, m, &friPcs) - 1
	proof.Openings[powSlot] = new(big.Int).Add(
		proof.Openings[powSlot], big.NewInt(1))
	assignment = verifierAssignment(rng, fieldEnum, m, proof, 10, 1)
	assignment.Active = 1

	witness, err = frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	require.NoError(t, err, "ggs solving witness error")
	require.Error(t, cs.IsSolved(witness),
		"ggs tampered grinding witness still passing the proof of work")
}
