package version

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

var (
	CLIName    = "eth-trading-mcp"
	CLIVersion = "0.1.0"
	Commit     = "unknown"
	BuildDate  = "unknown"
)

func Long() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, mcp: %s)", CLIName, CLIVersion, Commit, BuildDate, mcp.LATEST_PROTOCOL_VERSION)
}
