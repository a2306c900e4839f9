package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"plan-tools/cmd/plantool/planyaml"
	"plan-tools/cmd/plantool/signature"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <plan | file>",
	Short: "Show the signature of a plan",
	Long: "Print the name, description, visibility and parameters of a plan.\n\n" +
		"The argument is a plan name, a YAML plan file or a .pp plan file. For\n" +
		"generated plans the autogenerated notice is left out of the description,\n" +
		"so a YAML plan and its conversion show the same signature.",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: planCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "human" && format != "json" {
			return fmt.Errorf("invalid format %q (want human or json)", format)
		}

		sig, err := loadSignature(args[0], cfg.ModulePath)
		if err != nil {
			return err
		}
		if format == "json" {
			return printSignatureJSON(cmd.OutOrStdout(), sig)
		}
		printSignature(cmd.OutOrStdout(), sig)
		return nil
	},
}

func init() {
	showCmd.Flags().String("format", "human", "output format: human or json")
}

// loadSignature reads the signature of a plan given by name or file.
func loadSignature(arg string, modulePath []string) (*signature.Signature, error) {
	if filepath.Ext(arg) == ".pp" {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("reading plan: %w", err)
		}
		sig, err := signature.FromSource(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		sig.Description = signature.StripWarning(sig.Description)
		return sig, nil
	}

	pf, err := resolvePlanArg(arg, modulePath, "")
	if err != nil {
		return nil, err
	}
	def, err := planyaml.ParseFile(pf.Name, pf.Path)
	if err != nil {
		return nil, err
	}
	return signature.FromDefinition(def)
}

func printSignatureJSON(w io.Writer, sig *signature.Signature) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sig)
}

func printSignature(w io.Writer, sig *signature.Signature) {
	fmt.Fprintln(w, styleTitle.Render(sig.Name))
	if sig.Description != "" {
		fmt.Fprintln(w, sig.Description)
	}
	fmt.Fprintf(w, "%s %t\n", styleLabel.Render("private:"), sig.Private)

	if len(sig.Parameters) == 0 {
		fmt.Fprintln(w, styleHint.Render("no parameters"))
		return
	}

	rows := make([][]string, len(sig.Parameters))
	for i, p := range sig.Parameters {
		def := ""
		if p.DefaultValue != nil {
			def = *p.DefaultValue
		}
		rows[i] = []string{p.Name, p.Type, def, strings.TrimSpace(p.Description)}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleBorder).
		Headers("PARAMETER", "TYPE", "DEFAULT", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleLabel.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(w, t.Render())
}
