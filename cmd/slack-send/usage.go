package slacksend

import (
	"os"
	"strings"
	"text/template"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/arthur-debert/slack-send/pkg/style"
)

const groupAnnotation = "slack-send/group"

// Flag groups in the order the usage output lists them. Ungrouped flags
// come last under "Flags".
const (
	groupVariables = "Variable Flags"
	groupTemplates = "Template Flags"
	groupDelivery  = "Delivery Flags"
	groupOther     = "Flags"
)

var groupOrder = []string{groupVariables, groupTemplates, groupDelivery, groupOther}

// flagSection is one block of the usage output.
type flagSection struct {
	Title  string
	Usages string
}

func setFlagGroup(fs *pflag.FlagSet, group string, names ...string) {
	for _, name := range names {
		_ = fs.SetAnnotation(name, groupAnnotation, []string{group})
	}
}

// flagSections splits the flags cmd accepts, its own and inherited, into
// their groups. Empty groups are left out.
func flagSections(cmd *cobra.Command) []flagSection {
	sets := make(map[string]*pflag.FlagSet, len(groupOrder))
	add := func(fl *pflag.Flag) {
		if fl.Hidden {
			return
		}
		group := groupOther
		if g := fl.Annotations[groupAnnotation]; len(g) > 0 {
			group = g[0]
		}
		fs, ok := sets[group]
		if !ok {
			fs = pflag.NewFlagSet(group, pflag.ContinueOnError)
			sets[group] = fs
		}
		if fs.Lookup(fl.Name) == nil {
			fs.AddFlag(fl)
		}
	}
	cmd.LocalFlags().VisitAll(add)
	cmd.InheritedFlags().VisitAll(add)

	var out []flagSection
	for _, group := range groupOrder {
		if fs, ok := sets[group]; ok {
			out = append(out, flagSection{Title: group, Usages: fs.FlagUsages()})
		}
	}
	return out
}

// heading renders a usage section title, bold on a terminal.
func heading(title string) string {
	s := strings.ToUpper(title) + ":"
	if !style.IsTerminal(os.Stdout) {
		return s
	}
	return pterm.Bold.Sprint(s)
}

func initTemplateFormatting() {
	cobra.AddTemplateFuncs(template.FuncMap{
		"heading":      heading,
		"flagSections": flagSections,
	})
}
