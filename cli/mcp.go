// ABOUTME: MCP server subcommand
// ABOUTME: Exposes saved visits to MCP clients over stdio
package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/onsite/handlers"
	"github.com/harperreed/onsite/visit"
)

// MCPServer registers the visit tools, resources and prompts.
func MCPServer(store visit.Store, version string) *mcp.Server {
	visitHandlers := handlers.NewVisitHandlers(store)
	resourceHandlers := handlers.NewResourceHandlers(store)
	promptHandlers := handlers.NewPromptHandlers(store)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "onsite",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_visits",
		Description: "List onsite visit recaps, newest first, optionally filtered by customer, account or summary text. Set drafts to list unfinished visits instead",
	}, visitHandlers.ListVisits)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_visit",
		Description: "Get the full record of one visit including interview answers, contacts, action items and the generated summary",
	}, visitHandlers.GetVisit)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_action_item",
		Description: "Add an action item to a visit",
	}, visitHandlers.AddActionItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_follow_up",
		Description: "Set the next follow-up date and notes for a visit",
	}, visitHandlers.SetFollowUp)

	server.AddResource(&mcp.Resource{
		URI:         "onsite://visits",
		Name:        "visits",
		Description: "Every saved visit with its progress and summary status",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "onsite://visits/{id}",
		Name:        "visit",
		Description: "One saved visit",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "onsite://visits/{id}/summary",
		Name:        "visit-summary",
		Description: "The generated recap of one visit as markdown",
		MIMEType:    "text/markdown",
	}, resourceHandlers.ReadResource)

	visitArg := []*mcp.PromptArgument{{Name: "visit_id", Description: "Visit ID", Required: true}}

	server.AddPrompt(&mcp.Prompt{
		Name:        "visit-recap",
		Description: "Write the onsite visit recap from the captured interview",
		Arguments:   visitArg,
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "follow-up-email",
		Description: "Draft a follow-up email to the customer after the visit",
		Arguments:   visitArg,
	}, promptHandlers.GetPrompt)

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(store visit.Store, version string, logger *log.Logger) error {
	logger.Info("starting MCP server")
	return MCPServer(store, version).Run(context.Background(), &mcp.StdioTransport{})
}
