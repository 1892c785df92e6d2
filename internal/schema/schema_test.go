package schema

import (
	"testing"

	"github.com/spf13/cobra"
)

func testRoot() *cobra.Command {
	root := &cobra.Command{Use: "eth-trading-mcp"}
	tools := &cobra.Command{Use: "tools", Short: "tool commands"}
	list := &cobra.Command{Use: "list", Short: "list tools"}
	call := &cobra.Command{Use: "call <tool>", Short: "call one tool"}
	call.Flags().String("args", "{}", "tool arguments as JSON")
	tools.AddCommand(list)
	root.AddCommand(tools, call)
	return root
}

var testTools = []ToolSchema{{
	Name:        "get_balance",
	Description: "balance",
	InputSchema: map[string]any{"type": "object"},
}}

func TestBuildCommandSchema(t *testing.T) {
	out, err := Build(testRoot(), "call", testTools)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	s, ok := out.(CommandSchema)
	if !ok {
		t.Fatalf("expected command schema, got %T", out)
	}
	if s.Path != "eth-trading-mcp call" {
		t.Fatalf("unexpected path: %s", s.Path)
	}
	if len(s.Flags) != 1 || s.Flags[0].Name != "args" || s.Flags[0].Default != "{}" {
		t.Fatalf("unexpected flags: %+v", s.Flags)
	}
}

func TestBuildRootIncludesTools(t *testing.T) {
	out, err := Build(testRoot(), "", testTools)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	doc, ok := out.(Document)
	if !ok {
		t.Fatalf("expected document, got %T", out)
	}
	if len(doc.Tools) != 1 || len(doc.Subcommands) != 2 {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestBuildToolByName(t *testing.T) {
	out, err := Build(testRoot(), "get_balance", testTools)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if tool, ok := out.(ToolSchema); !ok || tool.Name != "get_balance" {
		t.Fatalf("unexpected schema %#v", out)
	}
}

func TestBuildUnknownPath(t *testing.T) {
	if _, err := Build(testRoot(), "tools remove", testTools); err == nil {
		t.Fatal("expected error for unknown path")
	}
}
