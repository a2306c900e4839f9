package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"plan-tools/cmd/plantool/plan"
	"plan-tools/cmd/plantool/planyaml"
	"plan-tools/cmd/plantool/signature"
	"plan-tools/cmd/plantool/transpile"

	"github.com/charmbracelet/huh"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var convertCmd = &cobra.Command{
	Use:   "convert [plan | file]",
	Short: "Convert a YAML plan to Puppet plan language",
	Long: "Convert a YAML plan to Puppet plan language source.\n\n" +
		"The plan is given by name (looked up on the module path) or as a path to\n" +
		"a .yaml/.yml file. Output goes to stdout unless --output names a file or\n" +
		"--write places it next to the YAML plan as <name>.pp.\n\n" +
		"Nothing is written when the plan cannot be converted.",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: planCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		pick, _ := cmd.Flags().GetBool("pick")
		nameFlag, _ := cmd.Flags().GetString("name")

		var pf planFile
		switch {
		case len(args) == 1:
			var err error
			if pf, err = resolvePlanArg(args[0], cfg.ModulePath, nameFlag); err != nil {
				return err
			}
		case pick:
			var err error
			if pf, err = pickPlan(cfg.ModulePath); err != nil {
				return err
			}
		default:
			return fmt.Errorf("convert needs a plan name or file (or --pick)")
		}

		job := &convertJob{name: pf.Name, path: pf.Path}
		job.force, _ = cmd.Flags().GetBool("force")
		job.verify, _ = cmd.Flags().GetBool("verify")
		job.dest, _ = cmd.Flags().GetString("output")
		if write, _ := cmd.Flags().GetBool("write"); write {
			job.dest = outputPath(pf.Path)
		}

		if err := job.run(cmd.OutOrStdout()); err != nil {
			return err
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			return job.watch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "write the converted plan to this file")
	convertCmd.Flags().BoolP("write", "w", false, "write the converted plan next to the YAML plan as <name>.pp")
	convertCmd.Flags().Bool("force", false, "overwrite an existing output file without asking")
	convertCmd.Flags().Bool("verify", false, "check that the generated plan has the same signature as the YAML plan")
	convertCmd.Flags().Bool("watch", false, "convert again whenever the YAML plan changes")
	convertCmd.Flags().Bool("pick", false, "choose the plan interactively from those on the module path")
	convertCmd.Flags().String("name", "", "plan name to use instead of the one derived from the file path")
	convertCmd.MarkFlagsMutuallyExclusive("output", "write")
}

// convertJob converts one YAML plan file to one sink.
type convertJob struct {
	name   string // qualified plan name
	path   string // YAML plan file
	dest   string // output file; empty writes to stdout
	force  bool
	verify bool
}

// run reads, converts and writes the plan once.
func (j *convertJob) run(stdout io.Writer) error {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return fmt.Errorf("reading plan: %w", err)
	}
	src, err := j.convert(data)
	if err != nil {
		return err
	}
	return j.write(src, stdout)
}

// convert turns YAML plan bytes into plan source.
func (j *convertJob) convert(data []byte) (string, error) {
	def, err := planyaml.Parse(j.name, data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", j.path, err)
	}
	src, err := transpile.New(transpile.WithLogger(logger)).Transpile(def)
	if err != nil {
		return "", fmt.Errorf("%s: %w", j.path, err)
	}
	if j.verify {
		if err := verifySignature(def, src); err != nil {
			return "", fmt.Errorf("%s: %w", j.path, err)
		}
	}
	logger.Info("converted plan", "plan", j.name, "source", j.path, "steps", len(def.Steps))
	return src, nil
}

// verifySignature checks that the generated source declares the same
// interface as the YAML plan.
func verifySignature(def *plan.Definition, src string) error {
	want, err := signature.FromDefinition(def)
	if err != nil {
		return err
	}
	got, err := signature.FromSource(src)
	if err != nil {
		return fmt.Errorf("reading generated plan: %w", err)
	}
	got.Description = signature.StripWarning(got.Description)
	if diff := cmp.Diff(want, got); diff != "" {
		return fmt.Errorf("generated plan signature differs (-yaml +generated):\n%s", diff)
	}
	return nil
}

func (j *convertJob) write(src string, stdout io.Writer) error {
	if j.dest == "" {
		_, err := io.WriteString(stdout, src)
		return err
	}
	if !j.force {
		if err := confirmOverwrite(j.dest); err != nil {
			return err
		}
	}
	if err := os.WriteFile(j.dest, []byte(src), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", j.dest, err)
	}
	logger.Info("wrote plan", "plan", j.name, "path", j.dest)
	return nil
}

var errNotOverwritten = errors.New("not overwritten")

// confirmOverwrite returns nil when path does not exist or the user agrees
// to replace it. Without a terminal it refuses.
func confirmOverwrite(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("%s already exists. Overwrite?", path)).
		Affirmative("Overwrite").
		Negative("Keep").
		Value(&ok).
		Run()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", path, errNotOverwritten)
	}
	return nil
}
