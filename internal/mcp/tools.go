package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/memcli/mem/internal/spec"
	"github.com/memcli/mem/internal/task"
	"github.com/memcli/mem/internal/template"
	"github.com/memcli/mem/internal/todo"
)

// --- Shared types ---

// SpecSummary is a simplified spec for output.
type SpecSummary struct {
	Slug       string `json:"slug"                  jsonschema:"spec slug"`
	Title      string `json:"title"                 jsonschema:"spec title"`
	Status     string `json:"status"                jsonschema:"todo, merge_ready, completed, or abandoned"`
	AssignedTo string `json:"assigned_to,omitempty" jsonschema:"GitHub assignee"`
	IssueID    int    `json:"issue_id,omitempty"    jsonschema:"linked GitHub issue number"`
	Branch     string `json:"branch,omitempty"      jsonschema:"feature branch"`
	PRURL      string `json:"pr_url,omitempty"      jsonschema:"pull request URL"`
	Active     bool   `json:"active,omitempty"      jsonschema:"true when this is the active spec"`
}

// TaskSummary is a simplified task for output.
type TaskSummary struct {
	Name     string           `json:"name"               jsonschema:"task filename"`
	Title    string           `json:"title"              jsonschema:"task title"`
	Status   string           `json:"status"             jsonschema:"todo or completed"`
	Subtasks []SubtaskSummary `json:"subtasks,omitempty" jsonschema:"subtask checklist"`
}

// SubtaskSummary is one checklist item.
type SubtaskSummary struct {
	Title  string `json:"title"  jsonschema:"subtask title"`
	Status string `json:"status" jsonschema:"todo or completed"`
}

func toSpecSummary(sp *spec.Spec, active *spec.Spec) SpecSummary {
	return SpecSummary{
		Slug:       sp.Slug,
		Title:      sp.Title,
		Status:     string(sp.Status),
		AssignedTo: sp.AssignedTo,
		IssueID:    sp.IssueID,
		Branch:     sp.Branch,
		PRURL:      sp.PRURL,
		Active:     active != nil && active.Slug == sp.Slug,
	}
}

func toTaskSummaries(tasks []*task.Task) []TaskSummary {
	out := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		ts := TaskSummary{Name: t.Filename, Title: t.Title, Status: string(t.Status)}
		for _, sub := range t.Subtasks {
			ts.Subtasks = append(ts.Subtasks, SubtaskSummary{Title: sub.Title, Status: string(sub.Status)})
		}
		out = append(out, ts)
	}
	return out
}

// resolveSpec picks the spec for slug, or the active spec when slug is
// empty.
func resolveSpec(st Stores, slug string) (*spec.Spec, error) {
	if slug != "" {
		return st.Specs.Get(slug)
	}
	sp, err := st.Specs.Active()
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, fmt.Errorf("no active spec; pass a spec slug")
	}
	return sp, nil
}

// --- Status tool ---

// StatusInput is the input for the status tool (no parameters needed).
type StatusInput struct{}

// StatusOutput is the output for the status tool.
type StatusOutput struct {
	Branch     string       `json:"branch"                jsonschema:"current git branch"`
	ActiveSpec *SpecSummary `json:"active_spec,omitempty" jsonschema:"the spec being worked on, if any"`
	Warning    string       `json:"warning,omitempty"     jsonschema:"branch/spec mismatch warning"`
	SpecCount  int          `json:"spec_count"            jsonschema:"number of active specs"`
	TodoCount  int          `json:"todo_count"            jsonschema:"number of open todos"`
}

func handleStatus(st Stores) mcp.ToolHandlerFor[StatusInput, StatusOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
		branch, active, warning := st.Specs.BranchStatus()
		out := StatusOutput{Branch: branch, Warning: warning}
		if active != nil {
			summary := toSpecSummary(active, active)
			out.ActiveSpec = &summary
		}
		if specs, err := st.Specs.List(""); err == nil {
			out.SpecCount = len(specs)
		}
		if todos, err := st.Todos.List(todo.StatusOpen); err == nil {
			out.TodoCount = len(todos)
		}
		return nil, out, nil
	}
}

// --- Spec tools ---

// SpecListInput is the input for the spec_list tool.
type SpecListInput struct {
	All bool `json:"all,omitempty" jsonschema:"include completed and abandoned specs"`
}

// SpecListOutput is the output for the spec_list tool.
type SpecListOutput struct {
	Specs []SpecSummary `json:"specs" jsonschema:"matching specs"`
	Count int           `json:"count" jsonschema:"number of specs returned"`
}

func handleSpecList(st Stores) mcp.ToolHandlerFor[SpecListInput, SpecListOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input SpecListInput) (*mcp.CallToolResult, SpecListOutput, error) {
		var specs []*spec.Spec
		var err error
		if input.All {
			specs, err = st.Specs.List("")
		} else {
			specs, err = st.Specs.List(spec.StatusTodo)
			if err == nil {
				var ready []*spec.Spec
				ready, err = st.Specs.List(spec.StatusMergeReady)
				specs = append(specs, ready...)
			}
		}
		if err != nil {
			return nil, SpecListOutput{}, fmt.Errorf("listing specs: %w", err)
		}

		active, _ := st.Specs.Active()
		out := SpecListOutput{Count: len(specs), Specs: make([]SpecSummary, 0, len(specs))}
		for _, sp := range specs {
			out.Specs = append(out.Specs, toSpecSummary(sp, active))
		}
		return nil, out, nil
	}
}

// SpecShowInput is the input for the spec_show tool.
type SpecShowInput struct {
	Slug string `json:"slug" jsonschema:"spec slug or unique prefix"`
}

// SpecShowOutput is the output for the spec_show tool.
type SpecShowOutput struct {
	Spec  SpecSummary   `json:"spec"            jsonschema:"the spec"`
	Body  string        `json:"body"            jsonschema:"spec markdown body"`
	Tasks []TaskSummary `json:"tasks,omitempty" jsonschema:"tasks of the spec"`
}

func handleSpecShow(st Stores) mcp.ToolHandlerFor[SpecShowInput, SpecShowOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input SpecShowInput) (*mcp.CallToolResult, SpecShowOutput, error) {
		sp, err := st.Specs.Get(input.Slug)
		if err != nil {
			return nil, SpecShowOutput{}, err
		}
		active, _ := st.Specs.Active()
		tasks, _ := st.Tasks.List(sp.Slug)
		return nil, SpecShowOutput{
			Spec:  toSpecSummary(sp, active),
			Body:  sp.Body,
			Tasks: toTaskSummaries(tasks),
		}, nil
	}
}

// --- Task tools ---

// TaskListInput is the input for the task_list tool.
type TaskListInput struct {
	Spec string `json:"spec,omitempty" jsonschema:"spec slug (defaults to the active spec)"`
}

// TaskListOutput is the output for the task_list tool.
type TaskListOutput struct {
	Spec  string        `json:"spec"  jsonschema:"resolved spec slug"`
	Tasks []TaskSummary `json:"tasks" jsonschema:"tasks of the spec"`
}

func handleTaskList(st Stores) mcp.ToolHandlerFor[TaskListInput, TaskListOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input TaskListInput) (*mcp.CallToolResult, TaskListOutput, error) {
		sp, err := resolveSpec(st, input.Spec)
		if err != nil {
			return nil, TaskListOutput{}, err
		}
		tasks, err := st.Tasks.List(sp.Slug)
		if err != nil {
			return nil, TaskListOutput{}, fmt.Errorf("listing tasks: %w", err)
		}
		return nil, TaskListOutput{Spec: sp.Slug, Tasks: toTaskSummaries(tasks)}, nil
	}
}

// TaskCompleteInput is the input for the task_complete tool.
type TaskCompleteInput struct {
	Spec  string `json:"spec,omitempty"  jsonschema:"spec slug (defaults to the active spec)"`
	Task  string `json:"task"            jsonschema:"task filename or title substring"`
	Notes string `json:"notes,omitempty" jsonschema:"completion notes appended to the task"`
}

// TaskCompleteOutput is the output for the task_complete tool.
type TaskCompleteOutput struct {
	Spec string `json:"spec"   jsonschema:"resolved spec slug"`
	Name string `json:"name"   jsonschema:"completed task filename"`
}

func handleTaskComplete(st Stores) mcp.ToolHandlerFor[TaskCompleteInput, TaskCompleteOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input TaskCompleteInput) (*mcp.CallToolResult, TaskCompleteOutput, error) {
		sp, err := resolveSpec(st, input.Spec)
		if err != nil {
			return nil, TaskCompleteOutput{}, err
		}
		t, err := findTask(st, sp.Slug, input.Task)
		if err != nil {
			return nil, TaskCompleteOutput{}, err
		}
		for _, sub := range t.Subtasks {
			if sub.Status != task.StatusCompleted {
				return nil, TaskCompleteOutput{}, fmt.Errorf("task %q has open subtasks", t.Title)
			}
		}
		if err := st.Tasks.Complete(sp.Slug, t.Filename, input.Notes); err != nil {
			return nil, TaskCompleteOutput{}, fmt.Errorf("completing task: %w", err)
		}
		return nil, TaskCompleteOutput{Spec: sp.Slug, Name: t.Filename}, nil
	}
}

func findTask(st Stores, specSlug, ref string) (*task.Task, error) {
	if t, err := st.Tasks.Get(specSlug, ref); err == nil {
		return t, nil
	}
	name, err := st.Tasks.FindByTitle(specSlug, ref)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("no task matching %q in spec %q", ref, specSlug)
	}
	return st.Tasks.Get(specSlug, name)
}

// --- Log tool ---

// LogInput is the input for the log tool.
type LogInput struct {
	Spec string `json:"spec,omitempty" jsonschema:"spec slug (defaults to the active spec, empty for an unlinked log)"`
	Body string `json:"body,omitempty" jsonschema:"markdown body; the log template is used when empty"`
}

// LogOutput is the output for the log tool.
type LogOutput struct {
	Filename string `json:"filename"       jsonschema:"created log filename"`
	Spec     string `json:"spec,omitempty" jsonschema:"linked spec slug"`
}

func handleLog(st Stores) mcp.ToolHandlerFor[LogInput, LogOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input LogInput) (*mcp.CallToolResult, LogOutput, error) {
		specSlug := input.Spec
		if specSlug == "" {
			if sp, _ := st.Specs.Active(); sp != nil {
				specSlug = sp.Slug
			}
		} else if sp, err := st.Specs.Get(specSlug); err == nil {
			specSlug = sp.Slug
		} else {
			return nil, LogOutput{}, err
		}

		lg, err := st.Logs.Create(specSlug, template.Log)
		if err != nil {
			return nil, LogOutput{}, fmt.Errorf("creating log: %w", err)
		}
		if input.Body != "" {
			if err := st.Logs.UpdateBody(lg.Filename, input.Body); err != nil {
				return nil, LogOutput{}, fmt.Errorf("writing log body: %w", err)
			}
		}
		return nil, LogOutput{Filename: lg.Filename, Spec: specSlug}, nil
	}
}

// --- Todo tools ---

// TodoListInput is the input for the todo_list tool.
type TodoListInput struct {
	All bool `json:"all,omitempty" jsonschema:"include completed todos"`
}

// TodoEntry is one todo in output.
type TodoEntry struct {
	Slug    string `json:"slug"               jsonschema:"todo slug"`
	Title   string `json:"title"              jsonschema:"todo title"`
	Status  string `json:"status"             jsonschema:"open or completed"`
	IssueID int    `json:"issue_id,omitempty" jsonschema:"linked GitHub issue number"`
}

// TodoListOutput is the output for the todo_list tool.
type TodoListOutput struct {
	Todos []TodoEntry `json:"todos" jsonschema:"matching todos"`
	Count int         `json:"count" jsonschema:"number of todos returned"`
}

func handleTodoList(st Stores) mcp.ToolHandlerFor[TodoListInput, TodoListOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input TodoListInput) (*mcp.CallToolResult, TodoListOutput, error) {
		filter := todo.StatusOpen
		if input.All {
			filter = ""
		}
		todos, err := st.Todos.List(filter)
		if err != nil {
			return nil, TodoListOutput{}, fmt.Errorf("listing todos: %w", err)
		}
		out := TodoListOutput{Count: len(todos), Todos: make([]TodoEntry, 0, len(todos))}
		for _, t := range todos {
			out.Todos = append(out.Todos, TodoEntry{
				Slug:    t.Slug,
				Title:   t.Title,
				Status:  string(t.Status),
				IssueID: t.IssueID,
			})
		}
		return nil, out, nil
	}
}

// TodoCreateInput is the input for the todo_create tool.
type TodoCreateInput struct {
	Title       string `json:"title"                 jsonschema:"todo title"`
	Description string `json:"description,omitempty" jsonschema:"todo body"`
}

// TodoCreateOutput is the output for the todo_create tool.
type TodoCreateOutput struct {
	Slug string `json:"slug" jsonschema:"created todo slug"`
}

func handleTodoCreate(st Stores) mcp.ToolHandlerFor[TodoCreateInput, TodoCreateOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input TodoCreateInput) (*mcp.CallToolResult, TodoCreateOutput, error) {
		t, err := st.Todos.Create(input.Title, input.Description)
		if err != nil {
			return nil, TodoCreateOutput{}, err
		}
		return nil, TodoCreateOutput{Slug: t.Slug}, nil
	}
}
