package commands

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/keshon/dispatchbot/internal/router"
)

// categoryWeights orders help sections; unknown categories sort after them by name.
var categoryWeights = map[string]int{
	"Information": 0,
	"Utilities":   10,
	"Gameplay":    20,
	"Roleplay":    30,
	"Chat":        35,
	"Media":       40,
	"Settings":    50,
}

const otherCategory = "Other"

// Help lists the commands the caller may run, grouped by category.
func Help(catalog func() []*router.Command, prefix string) *router.Command {
	return &router.Command{
		Name:             "help",
		Description:      "Show a list of available commands.",
		Category:         categoryInformation,
		IsSlashCommand:   true,
		IsMessageCommand: true,
		AcceptDM:         true,
		CommandHandler: func(ctx context.Context, in *router.Interaction) error {
			var cmds []*router.Command
			if catalog != nil {
				cmds = catalog()
			}
			return in.Reply(ctx, router.Reply{Content: HelpText(cmds, prefix, in.Author.Roles), Ephemeral: true})
		},
	}
}

// HelpText renders the listing. Commands behind roles the user lacks are left
// out; with unresolved roles they are shown with a lock.
func HelpText(cmds []*router.Command, prefix string, roles router.RoleSet) string {
	groups := make(map[string][]*router.Command)
	for _, c := range cmds {
		if !c.IsSlashCommand && !c.IsMessageCommand {
			continue
		}
		if roles != nil && !router.Authorize(roles, c.RequiredRoles, c.RequireAllRoles) {
			continue
		}
		cat := c.Category
		if cat == "" {
			cat = otherCategory
		}
		groups[cat] = append(groups[cat], c)
	}
	if len(groups) == 0 {
		return "No commands available."
	}

	cats := make([]string, 0, len(groups))
	for cat := range groups {
		cats = append(cats, cat)
	}
	slices.SortFunc(cats, func(a, b string) int {
		return cmp.Or(cmp.Compare(weight(a), weight(b)), strings.Compare(a, b))
	})

	var sb strings.Builder
	sb.WriteString("📖 **Available Commands**\n\n")
	for _, cat := range cats {
		fmt.Fprintf(&sb, "**%s**\n", cat)
		list := groups[cat]
		slices.SortFunc(list, func(a, b *router.Command) int { return strings.Compare(a.Name, b.Name) })
		for _, c := range list {
			sb.WriteString(usage(c, prefix))
			if roles == nil && len(c.RequiredRoles) > 0 {
				sb.WriteString(" 🔒")
			}
			fmt.Fprintf(&sb, " - %s\n", c.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func usage(c *router.Command, prefix string) string {
	var forms []string
	if c.IsSlashCommand {
		forms = append(forms, "`/"+c.Name+"`")
	}
	if c.IsMessageCommand {
		forms = append(forms, "`"+prefix+c.Name+"`")
	}
	return strings.Join(forms, " ")
}

func weight(cat string) int {
	if w, ok := categoryWeights[cat]; ok {
		return w
	}
	return 1000
}
