package main

import (
	"math/big"

	"ShardReducerCircuit/modules/challenger"
	"ShardReducerCircuit/modules/fields"

	"github.com/PolyhedraZK/ExpanderCompilerCollection/ecgo"
	ecgoTest "github.com/PolyhedraZK/ExpanderCompilerCollection/ecgo/test"
	"github.com/consensys/gnark/frontend"
	"github.com/spf13/cobra"
)

func init() {
	reduceCmd.AddCommand(m31Cmd)
}

var m31Cmd = &cobra.Command{
	Use:   "mersenne31",
	Short: "Check the Mersenne31 reconstruction transcript over a GKR-compiled circuit",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		Mersenne31TranscriptImpl()
	},
}

// TranscriptChainCircuit replays the reconstructed transcript of one reduce
// batch over the Mersenne31 Poseidon sponge: the verifying key, then every
// shard commitment and statement in chain order. The full reduce circuit
// needs evaluation domains the Mersenne field's two-adicity cannot offer, so
// the Mersenne31 path carries the transcript side only.
type TranscriptChainCircuit struct {
	VkCommit     []frontend.Variable
	Commits      [][]frontend.Variable
	PublicValues [][]frontend.Variable

	ExpectedState []frontend.Variable `gnark:",public"`
}

func (c *TranscriptChainCircuit) Define(api frontend.API) error {
	engine := fields.ArithmeticEngine{ECCFieldEnum: fields.ECCM31, API: api}

	transcript := challenger.NewDuplexChallenger(engine)
	transcript.ObserveCommitment(c.VkCommit)
	for i := range c.Commits {
		transcript.ObserveCommitment(c.Commits[i])
		transcript.Observe(c.PublicValues[i]...)
		transcript.Flush()
	}

	state := transcript.State()
	for i := range c.ExpectedState {
		engine.AssertIsEqual(state[i], c.ExpectedState[i])
	}
	return nil
}

func Mersenne31TranscriptImpl() {
	fieldEnum := fields.ECCM31

	nativeWitness, _ := loadNativeWitness(fieldEnum)

	numProofs := len(nativeWitness.Proofs)
	placeholder := TranscriptChainCircuit{
		VkCommit:     make([]frontend.Variable, fieldEnum.CommitmentDigestSize()),
		Commits:      make([][]frontend.Variable, numProofs),
		PublicValues: make([][]frontend.Variable, numProofs),

		ExpectedState: make([]frontend.Variable, fieldEnum.SpongeStateWidth()),
	}
	for i, proof := range nativeWitness.Proofs {
		placeholder.Commits[i] = make([]frontend.Variable, len(proof.MainCommit))
		placeholder.PublicValues[i] = make([]frontend.Variable, len(proof.PublicValues))
	}

	m31Compilation, err := ecgo.Compile(fieldEnum.FieldModulus(), &placeholder)
	if err != nil {
		panic(err.Error())
	}

	// witness definition: the expected state is the reference replay
	sponge := challenger.NewReferenceSponge(fieldEnum)
	sponge.ObserveCommitment(nativeWitness.BaseVkCommit)
	for _, proof := range nativeWitness.Proofs {
		sponge.ObserveCommitment(proof.MainCommit)
		sponge.Observe(proof.PublicValues...)
		sponge.Flush()
	}

	assignment := TranscriptChainCircuit{
		VkCommit:      nativeVariables(nativeWitness.BaseVkCommit),
		Commits:       make([][]frontend.Variable, numProofs),
		PublicValues:  make([][]frontend.Variable, numProofs),
		ExpectedState: nativeVariables(sponge.State()),
	}
	for i, proof := range nativeWitness.Proofs {
		assignment.Commits[i] = nativeVariables(proof.MainCommit)
		assignment.PublicValues[i] = nativeVariables(proof.PublicValues)
	}

	println("Solving witness...")
	inputSolver := m31Compilation.GetInputSolver()
	witness, err := inputSolver.SolveInput(&assignment, 0)
	if err != nil {
		panic(err.Error())
	}

	println("Checking satisfiability...")
	layeredCircuit := m31Compilation.GetLayeredCircuit()
	println(ecgoTest.CheckCircuit(layeredCircuit, witness))
}

func nativeVariables(vs []*big.Int) []frontend.Variable {
	out := make([]frontend.Variable, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
