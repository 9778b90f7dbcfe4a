package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeroade/cbma/internal/pipeline"
)

func init() {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive session with live memory layers",
		Long:  "Start an interactive session. Plain input runs through the full pipeline; slash commands inspect and steer the layers. Type /help for the list.",
		Run:   runRepl,
	}
	RootCmd.AddCommand(cmd)
}

func runRepl(cmd *cobra.Command, args []string) {
	session, err := newSession()
	if err != nil {
		exitErr("start session", err)
	}
	defer session.Store().Close()

	header("cbma interactive session")
	dim("plain input runs the full pipeline; /help lists commands")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := replCommand(cmd, session, line); quit {
				break
			}
			continue
		}

		res, err := session.ProcessQuery(cmd.Context(), line)
		if err != nil {
			warn("process query: " + err.Error())
			continue
		}
		printTurn(session, res)
	}
}

// replCommand dispatches one slash command; true means quit.
func replCommand(cmd *cobra.Command, session *pipeline.Session, line string) bool {
	fields := strings.Fields(line)
	rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch fields[0] {
	case "/quit", "/exit":
		dim(fmt.Sprintf("session ended after %d turns", session.Turns()))
		return true

	case "/help":
		replHelp()

	case "/alias":
		replAlias(session, rest)

	case "/aliases":
		aliases := session.Aliases().All()
		subheader(fmt.Sprintf("Aliases (%d)", len(aliases)))
		for _, term := range session.Aliases().Terms() {
			info(fmt.Sprintf("%s = %s", term, aliases[term]))
		}
		if len(aliases) == 0 {
			dim("none; bind one with /alias term = meaning")
		}

	case "/buffer":
		replBuffer(session, rest == "detail")

	case "/context":
		subheader("Active context")
		ctx := session.Buffer().ActiveContext()
		if ctx == "" {
			dim("buffer is empty")
			break
		}
		for _, line := range strings.Split(ctx, "\n") {
			info(line)
		}

	case "/search":
		if rest == "" {
			warn("usage: /search <query>")
			break
		}
		res, err := session.Coordinator().Search(cmd.Context(), rest)
		if err != nil {
			warn("search: " + err.Error())
			break
		}
		printRetrieval(res)

	case "/kg":
		if rest == "" {
			warn("usage: /kg <concept>")
			break
		}
		hits := session.Index().Query(rest, "")
		subheader(fmt.Sprintf("Knowledge hits for %q (%d)", rest, len(hits)))
		for _, t := range hits {
			info(fmt.Sprintf("%s -[%s]-> %s (%.2f)", t.Subject, t.Relation, t.Object, t.Confidence))
		}

	case "/consolidate":
		event, err := session.Consolidate(cmd.Context())
		if err != nil {
			warn("consolidate: " + err.Error())
			break
		}
		printEvent(event)

	case "/scores":
		scores, err := session.Engine().ScoreReport(cmd.Context())
		if err != nil {
			warn("score: " + err.Error())
			break
		}
		printScores(scores)

	case "/episodes":
		episodes, err := session.Store().Episodes(cmd.Context())
		if err != nil {
			warn("episodes: " + err.Error())
			break
		}
		subheader(fmt.Sprintf("Episodes (%d)", len(episodes)))
		for _, ep := range episodes {
			info(fmt.Sprintf("[%s] %s (retrievals %d)", ep.ID, truncateDisplay(ep.Content, 50), ep.RetrievalCount))
		}

	case "/semantics":
		entries, err := session.Store().Entries(cmd.Context())
		if err != nil {
			warn("semantics: " + err.Error())
			break
		}
		subheader(fmt.Sprintf("Semantic entries (%d)", len(entries)))
		for _, entry := range entries {
			info(fmt.Sprintf("[%s] %s: %s", entry.ID, entry.Concept, truncateDisplay(entry.Content, 50)))
		}

	case "/status":
		stats, err := session.Store().Counts(cmd.Context())
		if err != nil {
			warn("status: " + err.Error())
			break
		}
		subheader("Status")
		info(fmt.Sprintf("turns: %d  triples: %d  episodes: %d  semantic: %d  events: %d",
			session.Turns(), session.Index().Len(), stats.Episodes, stats.SemanticWrites, stats.Events))
		cycling := session.Loop().CyclingConcepts()
		if len(cycling) > 0 {
			dim(fmt.Sprintf("cycling concepts: %v", cycling))
		}

	default:
		warn("unknown command " + fields[0] + "; /help lists commands")
	}
	return false
}

func replAlias(session *pipeline.Session, rest string) {
	if rest == "" {
		warn("usage: /alias term = meaning, or /alias rm term")
		return
	}
	if strings.HasPrefix(rest, "rm ") {
		term := strings.TrimSpace(strings.TrimPrefix(rest, "rm "))
		if session.Aliases().Remove(term) {
			success(fmt.Sprintf("unbound %q", term))
		} else {
			dim(fmt.Sprintf("%q was not bound", term))
		}
		return
	}
	parts := strings.SplitN(rest, "=", 2)
	if len(parts) != 2 {
		warn("usage: /alias term = meaning")
		return
	}
	term := strings.TrimSpace(parts[0])
	meaning := strings.TrimSpace(parts[1])
	if term == "" || meaning == "" {
		warn("usage: /alias term = meaning")
		return
	}
	session.Aliases().Set(term, meaning)
	success(fmt.Sprintf("bound %q -> %q for this session", term, meaning))
}

func replBuffer(session *pipeline.Session, detail bool) {
	buf := session.Buffer()
	subheader(fmt.Sprintf("Attention buffer [%d/%d]", buf.Len(), buf.Capacity()))
	for _, chunk := range buf.State() {
		marker := " "
		if chunk.Compressed {
			marker = "≡"
		}
		info(fmt.Sprintf("%s %s (accesses %d, source %s)", marker, chunk.Concept, chunk.AccessCount, chunk.Source))
		if detail {
			dim("    " + truncateDisplay(chunk.Content, 70))
			if len(chunk.Contains) > 0 {
				dim(fmt.Sprintf("    contains: %v", chunk.Contains))
			}
		}
	}
	if buf.Len() == 0 {
		dim("empty")
	}
	if detail {
		for _, rec := range buf.History() {
			dim(fmt.Sprintf("compressed %v into %q at %s", rec.Evicted, rec.CompressedInto, rec.Timestamp.Format("15:04:05")))
		}
	}
}

func replHelp() {
	subheader("Commands")
	for _, line := range []string{
		"/alias term = meaning   bind a session alias for search expansion",
		"/alias rm term          unbind an alias",
		"/aliases                list active aliases",
		"/buffer [detail]        show the attention buffer",
		"/context                print the assembled active context",
		"/search <query>         dual-store search only",
		"/kg <concept>           query the knowledge index only",
		"/consolidate            run a consolidation cycle",
		"/scores                 saliency scores without consolidating",
		"/episodes               list episodic memories",
		"/semantics              list semantic entries",
		"/status                 session and store counts",
		"/quit                   end the session",
	} {
		info(line)
	}
}
