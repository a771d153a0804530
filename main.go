package main

import (
	"fmt"
	"os"

	"ShardReducerCircuit/modules/circuit"
	"ShardReducerCircuit/modules/fields"
	"ShardReducerCircuit/modules/reducer"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
)

var (
	shardProofFiles []string
	recursiveFlags  []uint

	baseVkFile      string
	recursionVkFile string

	prepLogDegree uint

	reducedProofFile string
)

func init() {
	reduceCmd.PersistentFlags().StringSliceVar(&shardProofFiles, "shard-proofs", nil, "The shard proofs fed into the reduce circuit, in chain order.")
	reduceCmd.PersistentFlags().UintSliceVar(&recursiveFlags, "recursive-flags", nil, "One flag per shard proof, 1 marking a recursive proof, 0 a base one.")
	reduceCmd.PersistentFlags().StringVar(&baseVkFile, "base-vk", "", "The base machine verifying key commitment file.")
	reduceCmd.PersistentFlags().StringVar(&recursionVkFile, "recursion-vk", "", "The recursion machine verifying key commitment file.")
	reduceCmd.PersistentFlags().UintVar(&prepLogDegree, "prep-log-degree", 10, "The log size of the preprocessed column evaluation domains.")
	reduceCmd.PersistentFlags().StringVar(&reducedProofFile, "reduce-proof", "", "The reduce proof output file.")
}

var reduceCmd = &cobra.Command{
	Use:   "reduce",
	Short: "Manage shard proof reduction",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpFunc()(cmd, args)
	},
}

// loadNativeWitness assembles the reduce batch from the CLI flags, or falls
// back to a seeded random fixture batch when no proof files are given, which
// keeps the compilation and satisfiability paths exercisable without a shard
// prover around.
func loadNativeWitness(
	fieldEnum fields.ECCFieldEnum,
) (*circuit.NativeReduceWitness, circuit.WitnessShape) {
	if len(shardProofFiles) == 0 {
		flags := recursiveFlags
		if flags == nil {
			flags = []uint{0, 0}
		}

		w, shape, err := reducer.NewRandomBatch(rand.New(rand.NewSource(0)), fieldEnum, flags)
		if err != nil {
			panic(err.Error())
		}
		return w, shape
	}

	shape := reducer.WitnessShapeFor(fieldEnum, uint(len(shardProofFiles)))

	w := &circuit.NativeReduceWitness{
		Proofs:        make([]*circuit.NativeShardProof, len(shardProofFiles)),
		IsRecursive:   make([]uint, len(shardProofFiles)),
		SortedIndices: make([][]uint, len(shardProofFiles)),

		PrepSortedIndices: circuit.IdentityOrdering(shape.NumPrepChips),
		PrepDomains:       circuit.UniformDomains(shape.NumPrepChips, uint64(prepLogDegree)),

		RecursionPrepSortedIndices: circuit.IdentityOrdering(shape.NumRecursionChips),
		RecursionPrepDomains:       circuit.UniformDomains(shape.NumRecursionChips, uint64(prepLogDegree)),
	}

	for i, path := range shardProofFiles {
		proof, err := circuit.ReadShardProofFile(path, fieldEnum)
		if err != nil {
			panic(err.Error())
		}
		w.Proofs[i] = proof
		w.SortedIndices[i] = circuit.IdentityOrdering(shape.NumChips)
	}
	for i, flag := range recursiveFlags {
		if i < len(w.IsRecursive) {
			w.IsRecursive[i] = flag
		}
	}

	var err error
	if w.BaseVkCommit, err = circuit.ReadVerifyingKeyFile(baseVkFile, fieldEnum); err != nil {
		panic(err.Error())
	}
	if w.RecursionVkCommit, err = circuit.ReadVerifyingKeyFile(recursionVkFile, fieldEnum); err != nil {
		panic(err.Error())
	}

	// TODO(HS) accept mid-chain transcript states from the parent reduce
	// node instead of always seeding a self-contained chain
	if err = reducer.SeedTranscriptStates(fieldEnum, w); err != nil {
		panic(err.Error())
	}

	return w, shape
}

func main() {
	if err := reduceCmd.Execute(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
