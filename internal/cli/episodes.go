package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List episodic memories",
		Run:   runEpisodes,
	}
	RootCmd.AddCommand(cmd)
}

func runEpisodes(cmd *cobra.Command, args []string) {
	st, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	episodes, err := st.Episodes(cmd.Context())
	if err != nil {
		exitErr("list episodes", err)
	}

	header(fmt.Sprintf("Episodic store (%d)", len(episodes)))
	for _, ep := range episodes {
		info(fmt.Sprintf("[%s] %s", ep.ID, truncateDisplay(ep.Content, 60)))
		ts := ""
		if !ep.Timestamp.IsZero() {
			ts = ep.Timestamp.Format("2006-01-02 15:04")
		}
		dim(fmt.Sprintf("      %s  source: %s  tags: %v  importance: %d  valence: %.1f  retrievals: %d",
			ts, ep.Source, ep.Tags, ep.UserImportance, ep.EmotionalValence, ep.RetrievalCount))
	}
	if len(episodes) == 0 {
		dim("empty; seed with `cbma load` or `cbma remember`")
	}
}
