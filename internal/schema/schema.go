package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type CommandSchema struct {
	Path        string          `json:"path"`
	Use         string          `json:"use"`
	Short       string          `json:"short"`
	Aliases     []string        `json:"aliases,omitempty"`
	Flags       []FlagSchema    `json:"flags,omitempty"`
	Subcommands []CommandSchema `json:"subcommands,omitempty"`
}

// ToolSchema describes one MCP tool and its JSON input schema.
type ToolSchema struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

// Document is the full machine-readable surface: the command tree plus the
// tools served over MCP.
type Document struct {
	CommandSchema
	Tools []ToolSchema `json:"tools,omitempty"`
}

type FlagSchema struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Type      string `json:"type"`
	Usage     string `json:"usage"`
	Default   string `json:"default,omitempty"`
}

// Build describes the command at commandPath. The root document also lists
// every tool; a path naming a tool returns only that tool's schema.
func Build(root *cobra.Command, commandPath string, tools []ToolSchema) (any, error) {
	commandPath = strings.TrimSpace(commandPath)
	if commandPath == "" {
		return Document{CommandSchema: serialize(root), Tools: tools}, nil
	}
	for _, tool := range tools {
		if tool.Name == commandPath {
			return tool, nil
		}
	}
	return buildCommand(root, commandPath)
}

func buildCommand(root *cobra.Command, commandPath string) (CommandSchema, error) {
	cmd := root
	for _, p := range strings.Fields(commandPath) {
		found := false
		for _, c := range cmd.Commands() {
			if c.Name() == p || slices.Contains(c.Aliases, p) {
				cmd = c
				found = true
				break
			}
		}
		if !found {
			return CommandSchema{}, fmt.Errorf("command or tool not found: %s", commandPath)
		}
	}
	return serialize(cmd), nil
}

func serialize(cmd *cobra.Command) CommandSchema {
	s := CommandSchema{
		Path:    strings.TrimSpace(cmd.CommandPath()),
		Use:     cmd.Use,
		Short:   cmd.Short,
		Aliases: cmd.Aliases,
		Flags:   collectFlags(cmd),
	}

	subs := cmd.Commands()
	for _, sub := range subs {
		if sub.Hidden {
			continue
		}
		s.Subcommands = append(s.Subcommands, serialize(sub))
	}

	return s
}

func collectFlags(cmd *cobra.Command) []FlagSchema {
	items := []FlagSchema{}
	cmd.NonInheritedFlags().VisitAll(func(f *pflag.Flag) {
		item := FlagSchema{
			Name:      f.Name,
			Shorthand: f.Shorthand,
			Type:      f.Value.Type(),
			Usage:     f.Usage,
			Default:   f.DefValue,
		}
		items = append(items, item)
	})
	return items
}
