package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pomd-project/pomd/pkg/color"
	"github.com/pomd-project/pomd/pkg/config"
	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/format"
)

var sequenceCmd = &cobra.Command{
	Use:   "sequence <command>",
	Short: "Run a predefined plan of sessions",
	Long: `Run a predefined plan of sessions instead of the standard
work/break alternation.

Sequences are defined in sequences.toml in the config directory. Once
the last block finishes the timer returns to the normal alternation.

Examples:
  pomd sequence list
  pomd sequence activate morning
  pomd sequence clear`,
	DisableFlagsInUseLine: true,
}

var sequenceActivateCmd = &cobra.Command{
	Use:   "activate <name>",
	Short: "Activate a sequence from sequences.toml",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		ctx, cancel := cmdCtx()
		defer cancel()
		st, err := c.ActivateSequence(ctx, args[0])
		if err != nil {
			if errclass.Is(err, errclass.ErrSequenceUnknown) {
				fmt.Fprintln(os.Stderr, formatSequenceNotFoundError(args[0]))
				os.Exit(1)
			}
			exitErr(err)
		}
		printState(st)
	},
}

var sequenceClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Deactivate the sequence and return to the normal alternation",
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		ctx, cancel := cmdCtx()
		defer cancel()
		st, err := c.ClearSequence(ctx)
		if err != nil {
			exitErr(err)
		}
		printState(st)
	},
}

var sequenceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the sequences defined in sequences.toml",
	Run: func(cmd *cobra.Command, args []string) {
		sequences, err := config.LoadSequences(configDir())
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(sequences)
			return
		}
		if len(sequences) == 0 {
			fmt.Println("No sequences defined.")
			fmt.Println(color.Dim("Add them to " + configDir() + "/" + config.SequencesFileName))
			return
		}
		for _, name := range config.SequenceNames(sequences) {
			seq := sequences[name]
			fmt.Printf("%s  %s  %d blocks\n",
				color.Header(name),
				color.Dim(format.HumanDuration(seq.TotalMinutes()*60)),
				len(seq.Blocks))
			for i, b := range seq.Blocks {
				fmt.Printf("  %d. %s %s\n", i+1, color.Session(string(b.Type)),
					color.Dim(format.HumanDuration(b.DurationMinutes*60)))
			}
		}
	},
}

func init() {
	sequenceCmd.AddCommand(sequenceActivateCmd)
	sequenceCmd.AddCommand(sequenceClearCmd)
	sequenceCmd.AddCommand(sequenceListCmd)
	rootCmd.AddCommand(sequenceCmd)
}
