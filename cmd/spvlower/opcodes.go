package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gogpu/spvfront/lower"
)

var opcodesCmd = &cobra.Command{
	Use:   "opcodes",
	Short: "List the opcodes the lowering understands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printOpcodes(cmd.OutOrStdout())
	},
}

func printOpcodes(w io.Writer) error {
	for _, op := range lower.ClassifiedOpcodes() {
		class, err := lower.Classify(op)
		if err != nil {
			return err
		}
		name := class.Name
		if class.Polymorphic() {
			name += "<T>"
		}
		if _, err := fmt.Fprintf(w, "%-24s %-12s %-28s %s\n",
			op, dimColor.Sprint(class.Family), opColor.Sprint(name),
			dimColor.Sprintf("arity %d", class.Arity)); err != nil {
			return err
		}
	}
	return nil
}
