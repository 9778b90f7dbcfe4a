package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeroade/cbma/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Seed the stores from a JSON memory file",
		Long:  "Load episodes and semantic entries from a JSON file with \"episodes\" and \"semantic_entries\" arrays. A malformed record fails the whole import.",
		Args:  cobra.ExactArgs(1),
		Run:   runLoad,
	}
	RootCmd.AddCommand(cmd)
}

func runLoad(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read seed file", err)
	}
	var doc struct {
		Episodes []model.Episode       `json:"episodes"`
		Entries  []model.SemanticEntry `json:"semantic_entries"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		exitErr("parse seed file", err)
	}

	st, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	if len(doc.Episodes) > 0 {
		n, err := st.ImportEpisodes(cmd.Context(), doc.Episodes)
		if err != nil {
			exitErr("import episodes", err)
		}
		success(fmt.Sprintf("imported %d episodes", n))
	}
	if len(doc.Entries) > 0 {
		n, err := st.ImportEntries(cmd.Context(), doc.Entries)
		if err != nil {
			exitErr("import semantic entries", err)
		}
		success(fmt.Sprintf("imported %d semantic entries", n))
	}
	if len(doc.Episodes) == 0 && len(doc.Entries) == 0 {
		dim("seed file has no episodes or semantic entries")
	}
}
