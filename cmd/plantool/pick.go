package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ktr0731/go-fuzzyfinder"
)

// pickPlan lets the user select one of the plans on the module path in a
// fuzzy finder, previewing the YAML source.
func pickPlan(modulePath []string) (planFile, error) {
	plans, err := discoverPlans(modulePath)
	if err != nil {
		return planFile{}, err
	}
	if len(plans) == 0 {
		return planFile{}, fmt.Errorf("no YAML plans found on module path")
	}

	idx, err := fuzzyfinder.Find(
		plans,
		func(i int) string {
			return plans[i].Name
		},
		fuzzyfinder.WithPromptString("Select plan: "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			data, err := os.ReadFile(plans[i].Path)
			if err != nil {
				return err.Error()
			}
			return plans[i].Path + "\n\n" + string(data)
		}),
	)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return planFile{}, fmt.Errorf("no plan selected")
	}
	if err != nil {
		return planFile{}, err
	}
	return plans[idx], nil
}
