package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeroade/cbma/internal/model"
	"github.com/zeroade/cbma/internal/saliency"
)

func init() {
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Run one consolidation cycle over the episodic store",
		Run:   runConsolidate,
	}
	RootCmd.AddCommand(cmd)
}

func runConsolidate(cmd *cobra.Command, args []string) {
	st, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	engine := saliency.NewEngine(st, saliency.NewScorer(saliency.DefaultWeights()), newLogger())
	event, err := engine.Run(cmd.Context())
	if err != nil {
		exitErr("consolidate", err)
	}
	printEvent(event)
}

func printEvent(event *model.ConsolidationEvent) {
	header("Consolidation cycle")
	info(fmt.Sprintf("scored %d episodes", event.TotalScored))
	for _, c := range event.Consolidated {
		success(fmt.Sprintf("%s consolidated into %s (%s)", c.SourceEpisode, c.NewEntry, c.Concept))
	}
	for _, id := range event.Pruned {
		fmt.Println(dangerStyle.Render("  ✗ " + id + " pruned"))
	}
	info(fmt.Sprintf("%d retained", event.Retained))
}
