package policy

import (
	"strings"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
)

// CheckToolAllowed enforces the --enable-tools allowlist. An empty allowlist
// allows every tool.
func CheckToolAllowed(allowlist []string, tool string) error {
	if len(allowlist) == 0 {
		return nil
	}
	name := normalize(tool)
	for _, allowed := range allowlist {
		if normalize(allowed) == name {
			return nil
		}
	}
	return clierr.New(clierr.CodeBlocked, "tool blocked by --enable-tools policy").WithDetail("tool", tool)
}

func normalize(v string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), "-", "_")
}
