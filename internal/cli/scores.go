package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeroade/cbma/internal/model"
	"github.com/zeroade/cbma/internal/saliency"
)

func init() {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Show saliency scores without consolidating",
		Run:   runScores,
	}
	RootCmd.AddCommand(cmd)
}

func runScores(cmd *cobra.Command, args []string) {
	st, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	engine := saliency.NewEngine(st, saliency.NewScorer(saliency.DefaultWeights()), newLogger())
	scores, err := engine.ScoreReport(cmd.Context())
	if err != nil {
		exitErr("score episodes", err)
	}
	printScores(scores)
}

func printScores(scores []model.ScoreResult) {
	header(fmt.Sprintf("Saliency scores (%d episodes)", len(scores)))
	if len(scores) == 0 {
		dim("episodic store is empty")
		return
	}
	dim(fmt.Sprintf("%-8s %-12s %6s  %5s %5s %5s %5s %5s", "id", "action", "total", "freq", "rec", "user", "nov", "conn"))
	for _, sc := range scores {
		d := sc.Dimensions
		line := fmt.Sprintf("%-8s %-12s %6.3f  %5.2f %5.2f %5.2f %5.2f %5.2f",
			sc.EpisodeID, sc.Action, sc.Total,
			d.Frequency, d.Recency, d.UserSignal, d.Novelty, d.ConnectionDensity)
		fmt.Println(actionStyle(string(sc.Action)).Render("  " + line))
		if sc.Source != "" {
			dim("         " + sc.Source)
		}
	}
}
