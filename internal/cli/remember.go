package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeroade/cbma/internal/store"
)

var (
	rememberSource     string
	rememberTags       []string
	rememberImportance int
	rememberValence    float64
)

func init() {
	cmd := &cobra.Command{
		Use:   "remember [content]",
		Short: "Ingest a conversational turn as an episode",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRemember,
	}
	cmd.Flags().StringVarP(&rememberSource, "source", "s", "user conversation", "Where this memory came from")
	cmd.Flags().StringSliceVarP(&rememberTags, "tags", "t", nil, "Topic tags (comma separated)")
	cmd.Flags().IntVarP(&rememberImportance, "importance", "i", 3, "User importance, 1 to 5")
	cmd.Flags().Float64Var(&rememberValence, "valence", 0, "Emotional valence, -1 to 1")
	RootCmd.AddCommand(cmd)
}

func runRemember(cmd *cobra.Command, args []string) {
	st, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	ep, err := st.AddEpisode(cmd.Context(), store.AddParams{
		Source:     rememberSource,
		Content:    strings.Join(args, " "),
		Tags:       rememberTags,
		Importance: rememberImportance,
		Valence:    rememberValence,
	})
	if err != nil {
		exitErr("add episode", err)
	}
	success(fmt.Sprintf("remembered as %s (importance %d, valence %.1f)", ep.ID, ep.UserImportance, ep.EmotionalValence))
}
