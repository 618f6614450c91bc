// Package mcp provides a Model Context Protocol server for mem.
// It exposes spec, task, log, and todo operations as MCP tools that
// any MCP-capable agent can use.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/memcli/mem/internal/spec"
	"github.com/memcli/mem/internal/task"
	"github.com/memcli/mem/internal/todo"
	"github.com/memcli/mem/internal/worklog"
)

// Stores bundles the project stores the tools operate on.
type Stores struct {
	Root  string
	Specs *spec.Store
	Tasks *task.Store
	Logs  *worklog.Store
	Todos *todo.Store
}

// NewServer creates an MCP server with all mem tools registered.
func NewServer(version string, st Stores) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mem",
		Version: version,
	}, nil)
	registerTools(server, st)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// writeAnnotations returns annotations for write tools (additive, not destructive).
func writeAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(false),
	}
}

// registerTools adds all mem tools to the server.
func registerTools(server *mcp.Server, st Stores) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "status",
		Description: "Show project state: current branch, the active spec, and counts of specs, tasks, and open todos.",
		Annotations: readOnlyAnnotations(),
	}, handleStatus(st))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "spec_list",
		Description: "List specifications with status, assignee, and GitHub linkage. Defaults to todo and merge_ready specs; pass all=true for everything.",
		Annotations: readOnlyAnnotations(),
	}, handleSpecList(st))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "spec_show",
		Description: "Show one specification by slug or prefix, including its body and task checklist.",
		Annotations: readOnlyAnnotations(),
	}, handleSpecShow(st))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "task_list",
		Description: "List the tasks and subtasks of a spec. Defaults to the active spec.",
		Annotations: readOnlyAnnotations(),
	}, handleTaskList(st))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "task_complete",
		Description: "Mark a task of a spec completed, with optional completion notes. Blocked while the task has open subtasks.",
		Annotations: writeAnnotations(),
	}, handleTaskComplete(st))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log",
		Description: "Create a work log for this session, linked to the active spec, with the given markdown body. Required before 'mem spec complete'.",
		Annotations: writeAnnotations(),
	}, handleLog(st))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "todo_list",
		Description: "List open todos.",
		Annotations: readOnlyAnnotations(),
	}, handleTodoList(st))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "todo_create",
		Description: "Create a todo with a title and optional description.",
		Annotations: writeAnnotations(),
	}, handleTodoCreate(st))
}
