package cmd

import (
	"fmt"

	"github.com/linkstash/linkstash/internal/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server for bookmark access from assistants.

The server communicates via stdio and provides four tools:
  - save_bookmark: Save a URL or note:// snippet
  - search_bookmarks: Search bookmarks by meaning and keywords
  - get_bookmark: Get a bookmark by ID
  - refresh_bookmark: Re-fetch a bookmark's metadata

Example:
  linkstash serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	server := mcp.NewServer(mcp.Config{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
		UserID:  cfg.User.ID,
	}, svc.engine, svc.pipeline, svc.store)

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server...")

	return server.ServeStdio()
}
