package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jon-hidalgo/cv-generator/convert"
	"github.com/jon-hidalgo/cv-generator/docx"
	"github.com/jon-hidalgo/cv-generator/organize"
	"github.com/jon-hidalgo/cv-generator/template"
)

var (
	templatePath string
	outputPath   string
	dataPath     string
	defines      []string
	pdfFlag      bool
	roleFlag     string
	companyFlag  string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "cvgen",
	Short: "Fill {{TOKEN}} placeholders in a CV template",
	Long: `cvgen fills a document template with values and writes the result.

Placeholders are written as {{TOKEN}} (letters, digits and underscores).
Values are merged from an optional data file (--data, JSON or YAML) and
inline -D KEY=VALUE overrides; an override always wins. Tokens without a
value stay verbatim in the output.

Templates may be .docx (formatting is preserved) or plain text.`,
	Example: `  cvgen --template cv.docx --output cv_filled.docx --data data.json
  cvgen --template cv.docx --output cv.docx -D NAME="Jane Smith" -D EMAIL=jane@example.com
  cvgen --template cv.docx --output out/cv.docx --role "Backend Engineer" --company "ACME Corp" --pdf`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFill,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.Flags().StringVar(&templatePath, "template", "", "path to the template document (.docx or plain text)")
	rootCmd.Flags().StringVar(&outputPath, "output", "", "path for the filled document")
	rootCmd.Flags().StringVar(&dataPath, "data", "", "JSON or YAML file with the base placeholder mapping")
	rootCmd.Flags().StringArrayVarP(&defines, "define", "D", nil, "inline KEY=VALUE override (repeatable)")
	rootCmd.Flags().BoolVar(&pdfFlag, "pdf", false, "also convert the filled document to PDF")
	rootCmd.Flags().StringVar(&roleFlag, "role", "", "role name used to organize the output folder")
	rootCmd.Flags().StringVar(&companyFlag, "company", "", "company name used to organize the output folder")

	_ = rootCmd.MarkFlagRequired("template")
	_ = rootCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging routes slog to stderr. Without --verbose only warnings surface.
func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runFill(cmd *cobra.Command, args []string) error {
	setupLogging()

	mapping, err := buildMapping()
	if err != nil {
		return err
	}
	slog.Debug("placeholder mapping built", "keys", len(mapping))

	target := organize.OutputPath(outputPath, roleFlag, companyFlag)
	if target != outputPath {
		slog.Debug("output organized", "path", target)
	}

	if isDocx(templatePath) {
		err = fillDocxTemplate(templatePath, target, mapping)
	} else {
		err = fillTextTemplate(templatePath, target, mapping)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)

	// Conversion failure does not fail the run: the primary output above is
	// already written and stays valid.
	if pdfFlag {
		pdfPath, err := convert.ToPDF(cmd.Context(), target)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", pdfPath)
	}

	return nil
}

// buildMapping merges the data file (if any) with the inline overrides.
func buildMapping() (template.Mapping, error) {
	base := template.Mapping{}
	if dataPath != "" {
		var err error
		base, err = template.LoadFile(dataPath)
		if err != nil {
			return nil, err
		}
	}

	overrides, err := template.ParseDefines(defines)
	if err != nil {
		return nil, err
	}

	return template.Merge(base, overrides), nil
}

func isDocx(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".docx")
}

func fillDocxTemplate(templatePath, target string, mapping template.Mapping) error {
	doc, err := docx.Open(templatePath)
	if err != nil {
		return err
	}
	defer doc.Close()

	if err := doc.ReplaceAll(docx.PlaceholderMap(mapping)); err != nil {
		return err
	}

	return doc.WriteToFile(target)
}

func fillTextTemplate(templatePath, target string, mapping template.Mapping) error {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("%w: %s", docx.ErrTemplateNotFound, templatePath)
	}

	filled := template.Fill(string(raw), mapping)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("%w: unable to ensure path directories: %s", docx.ErrWriteFailed, err)
	}
	if err := os.WriteFile(target, []byte(filled), 0644); err != nil {
		return fmt.Errorf("%w: %s", docx.ErrWriteFailed, err)
	}
	return nil
}
