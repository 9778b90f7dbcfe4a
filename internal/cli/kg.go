package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var kgRelation string

func init() {
	cmd := &cobra.Command{
		Use:   "kg [concept]",
		Short: "Query the structured knowledge index",
		Run:   runKG,
	}
	cmd.Flags().StringVarP(&kgRelation, "relation", "r", "", "Only match this relation")
	RootCmd.AddCommand(cmd)
}

func runKG(cmd *cobra.Command, args []string) {
	idx, err := loadIndex()
	if err != nil {
		exitErr("load knowledge index", err)
	}

	if len(args) == 0 {
		header(fmt.Sprintf("Knowledge index (%d triples)", idx.Len()))
		for _, t := range idx.Triples() {
			info(fmt.Sprintf("%s -[%s]-> %s (%.2f)", t.Subject, t.Relation, t.Object, t.Confidence))
		}
		if idx.Len() == 0 {
			dim("empty; pass --kg or set CBMA_KG to a triples file")
		}
		return
	}

	hits := idx.Query(args[0], kgRelation)
	header(fmt.Sprintf("Query %q (%d hits)", args[0], len(hits)))
	for _, t := range hits {
		info(fmt.Sprintf("%s -[%s]-> %s (%.2f)", t.Subject, t.Relation, t.Object, t.Confidence))
	}
	if len(hits) == 0 {
		dim("no matching triples")
	}
}
