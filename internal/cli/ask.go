package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeroade/cbma/internal/pipeline"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Run one query through every memory layer",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAsk,
	}
	RootCmd.AddCommand(cmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	session, err := newSession()
	if err != nil {
		exitErr("start session", err)
	}
	defer session.Store().Close()

	query := strings.Join(args, " ")
	res, err := session.ProcessQuery(cmd.Context(), query)
	if err != nil {
		exitErr("process query", err)
	}
	printTurn(session, res)
}

func printTurn(session *pipeline.Session, res *pipeline.TurnResult) {
	header(fmt.Sprintf("Query #%d: %s", res.Turn, truncateDisplay(res.Query, 50)))

	subheader("Layer 0: confidence-gated arbitration")
	info("decision: " + string(res.Arbitration.Decision))
	info("rationale: " + res.Arbitration.Rationale)
	if res.Arbitration.HitCount > 0 {
		dim(fmt.Sprintf("%d hits, max confidence %.2f", res.Arbitration.HitCount, res.Arbitration.MaxConfidence))
		for i, t := range res.Arbitration.Hits {
			if i == 3 {
				break
			}
			dim(fmt.Sprintf("  %s -[%s]-> %s (%.2f)", t.Subject, t.Relation, t.Object, t.Confidence))
		}
	}

	subheader("Layer 1: dual-store retrieval")
	info("strategy: " + string(res.Retrieval.Strategy))
	info("rationale: " + res.Retrieval.Rationale)
	if len(res.Retrieval.ActiveAliases) > 0 {
		dim(fmt.Sprintf("active aliases: %v", res.Retrieval.ActiveAliases))
	}
	for i, ep := range res.Retrieval.Episodic {
		if i == 2 {
			break
		}
		dim(fmt.Sprintf("[%s] %s (relevance %.2f)", ep.ID, truncateDisplay(ep.Source, 40), ep.Relevance))
	}
	for i, entry := range res.Retrieval.Semantic {
		if i == 2 {
			break
		}
		dim(fmt.Sprintf("[%s] %s (relevance %.2f)", entry.ID, entry.Concept, entry.Relevance))
	}

	subheader("Layer 2: attention buffer")
	for _, ev := range res.Buffer {
		switch ev.Action {
		case "compressed":
			warn(fmt.Sprintf("buffer full; evicted %s, compressed into %q, added %q [%d/%d]",
				strings.Join(ev.Evicted, ", "), ev.CompressedInto, ev.Concept, ev.Size, ev.Capacity))
		case "refreshed":
			info(fmt.Sprintf("%q already buffered; refreshed [%d/%d]", ev.Concept, ev.Size, ev.Capacity))
		default:
			info(fmt.Sprintf("%q added to buffer [%d/%d]", ev.Concept, ev.Size, ev.Capacity))
		}
	}
	for _, ev := range res.Loop {
		switch ev.Status {
		case "consolidated":
			success(fmt.Sprintf("%q finished cycling [%d/%d]; ready for long-term storage", ev.Concept, ev.Count, session.Loop().Threshold()))
		default:
			dim(fmt.Sprintf("%q %s [%d/%d]", ev.Concept, ev.Status, ev.Count, session.Loop().Threshold()))
		}
	}

	subheader("Layer 3: cognitive load")
	a := res.Regulation.Assessment
	if a.Overloaded {
		warn(fmt.Sprintf("density %.2f, %d new concepts; response regulated (%s)", a.Density, a.NewConcepts, a.Suggestion.Strategy))
	} else {
		info(fmt.Sprintf("density %.2f, %d new concepts; load normal", a.Density, a.NewConcepts))
	}

	subheader("Response")
	fmt.Println()
	for _, line := range strings.Split(res.Response, "\n") {
		if strings.TrimSpace(line) != "" {
			info(line)
		}
	}
	fmt.Println()
}

func truncateDisplay(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
