package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeroade/cbma/internal/retrieval"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the episodic and semantic stores",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}
	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	st, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	coord := retrieval.NewCoordinator(st, retrieval.NewAliasTable(), newLogger())
	res, err := coord.Search(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		exitErr("search", err)
	}
	printRetrieval(res)
}

func printRetrieval(res *retrieval.Result) {
	header("Dual-store search")
	info("strategy: " + string(res.Strategy))
	info("rationale: " + res.Rationale)
	dim(fmt.Sprintf("terms: %v", res.Terms))

	subheader(fmt.Sprintf("Episodic (%d)", len(res.Episodic)))
	for _, ep := range res.Episodic {
		info(fmt.Sprintf("[%s] %.2f  %s", ep.ID, ep.Relevance, truncateDisplay(ep.Content, 60)))
		dim(fmt.Sprintf("      source: %s  tags: %v  retrievals: %d", ep.Source, ep.Tags, ep.RetrievalCount))
	}
	if len(res.Episodic) == 0 {
		dim("no episodic hits")
	}

	subheader(fmt.Sprintf("Semantic (%d)", len(res.Semantic)))
	for _, entry := range res.Semantic {
		info(fmt.Sprintf("[%s] %.2f  %s", entry.ID, entry.Relevance, entry.Concept))
		dim("      " + truncateDisplay(entry.Content, 70))
	}
	if len(res.Semantic) == 0 {
		dim("no semantic hits")
	}
}
