package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show store counts and configuration",
		Run:   runStatus,
	}
	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	st, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	stats, err := st.Counts(cmd.Context())
	if err != nil {
		exitErr("count records", err)
	}
	idx, err := loadIndex()
	if err != nil {
		exitErr("load knowledge index", err)
	}

	header("Memory status")
	info(fmt.Sprintf("knowledge triples:    %d", idx.Len()))
	info(fmt.Sprintf("episodes:             %d", stats.Episodes))
	info(fmt.Sprintf("semantic entries:     %d", stats.SemanticWrites))
	info(fmt.Sprintf("consolidation events: %d", stats.Events))
	info(fmt.Sprintf("total retrievals:     %d", stats.TotalRetrieval))

	events, err := st.Events(cmd.Context())
	if err != nil {
		exitErr("list events", err)
	}
	if len(events) > 0 {
		last := events[len(events)-1]
		dim(fmt.Sprintf("last cycle %s: %d scored, %d consolidated, %d pruned, %d retained",
			last.Timestamp.Format("2006-01-02 15:04"),
			last.TotalScored, len(last.Consolidated), len(last.Pruned), last.Retained))
	}
}
