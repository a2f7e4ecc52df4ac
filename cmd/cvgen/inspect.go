package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jon-hidalgo/cv-generator/docx"
	"github.com/jon-hidalgo/cv-generator/template"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <template>",
	Short: "List the placeholder tokens found in a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	setupLogging()
	path := args[0]

	var tokens []string
	if isDocx(path) {
		doc, err := docx.Open(path)
		if err != nil {
			return err
		}
		defer doc.Close()
		tokens = doc.Tokens()
	} else {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %s", docx.ErrTemplateNotFound, path)
		}
		tokens = template.Tokens(string(raw))
	}

	for _, token := range tokens {
		fmt.Fprintln(cmd.OutOrStdout(), token)
	}
	return nil
}
