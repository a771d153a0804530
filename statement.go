package main

import (
	"fmt"
	"math/big"

	"ShardReducerCircuit/modules/fields"
	"ShardReducerCircuit/modules/reducer"

	"github.com/spf13/cobra"
)

func init() {
	reduceCmd.AddCommand(statementCmd)
}

var statementCmd = &cobra.Command{
	Use:   "statement",
	Short: "Dry-run the reduce batch natively and print the reduced statement",
	Long: `
Replay the reduce controller over native field values, without compiling or
proving anything: print the aggregated statement the circuit would commit to
and whether it links as a complete chain.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		StatementImpl()
	},
}

func StatementImpl() {
	fieldEnum := fields.ECCBN254

	nativeWitness, _ := loadNativeWitness(fieldEnum)
	statement, err := reducer.BuildNativeStatement(fieldEnum, nativeWitness)
	if err != nil {
		panic(err.Error())
	}

	fmt.Println("start pc:   ", statement.StartPc)
	fmt.Println("next pc:    ", statement.NextPc)
	fmt.Println("exit code:  ", statement.ExitCode)
	fmt.Println("digest:     ", digestHex(statement.CommittedValuesDigest))
	fmt.Println("reconstruct:", stateStrings(statement.ReconstructState))
	fmt.Println("witnessed:  ", stateStrings(statement.WitnessedState))

	if err := reducer.CheckStatementLink(
		fieldEnum, statement, nativeWitness.BaseVkCommit); err != nil {
		fmt.Println("chain link: ", err.Error())
		return
	}
	fmt.Println("chain link:  complete")
}

func stateStrings(state []*big.Int) []string {
	out := make([]string, len(state))
	for i, word := range state {
		out[i] = word.String()
	}
	return out
}

func digestHex(words []*big.Int) string {
	bytes := make([]byte, len(words))
	for i, word := range words {
		bytes[i] = byte(word.Uint64())
	}
	return fmt.Sprintf("%x", bytes)
}
