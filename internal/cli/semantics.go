package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "semantics",
		Short: "List semantic entries",
		Run:   runSemantics,
	}
	RootCmd.AddCommand(cmd)
}

func runSemantics(cmd *cobra.Command, args []string) {
	st, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	entries, err := st.Entries(cmd.Context())
	if err != nil {
		exitErr("list entries", err)
	}

	header(fmt.Sprintf("Semantic store (%d)", len(entries)))
	for _, entry := range entries {
		info(fmt.Sprintf("[%s] %s (confidence %.2f)", entry.ID, entry.Concept, entry.Confidence))
		dim("      " + truncateDisplay(entry.Content, 70))
		if len(entry.SourceEpisodes) > 0 {
			dim(fmt.Sprintf("      sources: %v", entry.SourceEpisodes))
		}
	}
	if len(entries) == 0 {
		dim("empty; run `cbma consolidate` to distill episodes")
	}
}
