package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// printVocabularies lists the event kinds of an equipment with their
// priority rank; lower ranks are applied first at the same instant.
func printVocabularies(w io.Writer, name string) error {
	eq, err := lookupEquipment(name)
	if err != nil {
		return err
	}
	for _, v := range eq.vocabularies {
		fmt.Fprintf(w, "=== %s ===\n", v.Name())
		for _, k := range v.Kinds() {
			fmt.Fprintf(w, "  %-22s rank %d\n", k.Name, k.Rank)
		}
	}
	return nil
}

var vocabularyCmd = &cobra.Command{
	Use:   "vocabulary [equipment...]",
	Short: "List the events each equipment accepts, by priority rank",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			// the house only aggregates the appliance vocabularies
			for _, name := range equipmentNames() {
				if name != "house" {
					args = append(args, name)
				}
			}
		}
		for _, name := range args {
			if err := printVocabularies(cmd.OutOrStdout(), name); err != nil {
				return err
			}
		}
		return nil
	},
}
