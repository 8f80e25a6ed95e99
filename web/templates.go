package web

import (
	"html/template"
	"time"

	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"eq":                 func(a, b string) bool { return a == b },
		"formatTime":         formatTime,
		"formatOptionalTime": formatOptionalTime,
		"filterName":         func(f todo.Filter) string { return string(f) },
		"priorityName":       func(p todo.Priority) string { return string(p) },
	}
	return template.Must(template.New("page").Funcs(funcs).Parse(pageTemplate))
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("2006-01-02 15:04:05")
}

func formatOptionalTime(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return formatTime(*value)
}

const pageTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Todos ({{.Stats.Active}} active)</title>
  <style>
    :root {
      color-scheme: light;
    }
    body {
      margin: 0;
      font-family: "Charter", "Georgia", serif;
      color: #2b2520;
      background: radial-gradient(circle at top left, #f4efe3 0%, #fcfaf6 55%, #f6f2e8 100%);
    }
    header {
      padding: 16px 24px;
      border-bottom: 1px solid #d7cdbd;
      display: flex;
      align-items: baseline;
      justify-content: space-between;
    }
    header h1 {
      margin: 0;
      font-size: 20px;
    }
    .filters {
      display: flex;
      gap: 8px;
    }
    .filter {
      padding: 6px 12px;
      border-radius: 999px;
      text-decoration: none;
      color: #5b5148;
      border: 1px solid transparent;
    }
    .filter.active {
      color: #1d1712;
      border-color: #d1c6b6;
      background: #f5efe4;
      font-weight: 600;
    }
    main {
      display: flex;
      gap: 18px;
      padding: 18px 24px 28px;
    }
    .pane {
      background: #ffffff;
      border: 1px solid #d7cdbd;
      border-radius: 14px;
      padding: 16px 20px;
    }
    .list-pane {
      width: 45%;
      min-width: 280px;
    }
    .detail-pane {
      flex: 1;
    }
    .add-form {
      display: flex;
      gap: 8px;
      margin-bottom: 12px;
    }
    .item-list {
      list-style: none;
      padding: 0;
      margin: 0;
    }
    .item {
      display: flex;
      align-items: center;
      gap: 10px;
      padding: 8px 4px;
      border-bottom: 1px solid #efe8dc;
    }
    .item.selected {
      background: #f6f0e6;
    }
    .item a {
      flex: 1;
      color: inherit;
      text-decoration: none;
    }
    .item.completed a {
      text-decoration: line-through;
      color: #8a8077;
    }
    .priority {
      font-size: 12px;
      color: #72685f;
    }
    .priority.high {
      color: #9b2c1f;
      font-weight: 600;
    }
    input[type="text"],
    select {
      padding: 8px 10px;
      border-radius: 8px;
      border: 1px solid #cbbfae;
      font-family: inherit;
      font-size: 14px;
      background: #fffdf9;
    }
    .add-form input[type="text"],
    .field input[type="text"] {
      flex: 1;
      width: 100%;
      box-sizing: border-box;
    }
    .field {
      display: flex;
      flex-direction: column;
      gap: 6px;
      margin-bottom: 12px;
    }
    .actions {
      display: flex;
      flex-wrap: wrap;
      gap: 10px;
      margin-top: 12px;
    }
    button {
      padding: 6px 12px;
      border-radius: 8px;
      border: 1px solid #bfb3a2;
      background: #efe6d7;
      font-family: inherit;
      cursor: pointer;
    }
    button.danger {
      background: #f4d7d2;
      border-color: #d7a7a1;
    }
    .readonly {
      display: grid;
      grid-template-columns: 120px 1fr;
      gap: 6px 12px;
      font-size: 14px;
      margin: 16px 0 8px;
    }
    .readonly dt {
      font-weight: 600;
      color: #4f4540;
    }
    .readonly dd {
      margin: 0;
    }
    .error,
    .warning {
      padding: 10px 12px;
      border-radius: 8px;
      margin-bottom: 12px;
    }
    .error {
      background: #f7d9d6;
      border: 1px solid #d9a7a2;
      color: #5b1d17;
    }
    .warning {
      background: #f8ecd0;
      border: 1px solid #dcc48e;
      color: #5a4410;
    }
    .muted {
      color: #72685f;
    }
    footer {
      display: flex;
      justify-content: space-between;
      align-items: center;
      gap: 12px;
      margin-top: 12px;
      font-size: 14px;
    }
    @media (max-width: 900px) {
      main {
        flex-direction: column;
      }
      .list-pane {
        width: auto;
      }
    }
  </style>
</head>
<body>
  <header>
    <h1>Todos</h1>
    <nav class="filters">
      {{range .Filters}}
        <a class="filter {{if .Active}}active{{end}}" href="/web/filter?value={{filterName .Filter}}">{{.Label}}</a>
      {{end}}
    </nav>
  </header>
  {{if .Warning}}<div class="warning" role="status">{{.Warning}}</div>{{end}}
  <main>
    <section class="pane list-pane">
      {{if .CreateError}}<div class="error">{{.CreateError}}</div>{{end}}
      <form class="add-form" method="post" action="/web/todos/create">
        <input type="text" name="text" value="{{.CreateForm.Text}}" placeholder="What needs to be done?" maxlength="500" autofocus>
        <select name="priority" aria-label="Priority">
          {{range .PriorityOptions}}
            <option value="{{.Value}}" {{if eq .Value $.CreateForm.Priority}}selected{{end}}>{{.Label}}</option>
          {{end}}
        </select>
        <button type="submit">Add</button>
      </form>
      <ul class="item-list">
        {{range .Todos}}
          <li class="item {{if .Completed}}completed{{end}} {{if eq .ID $.SelectedID}}selected{{end}}">
            <form method="post" action="/web/todos/toggle?id={{.ID}}&back={{$.SelectedID}}">
              <button type="submit" aria-label="Toggle">{{if .Completed}}&#x2611;{{else}}&#x2610;{{end}}</button>
            </form>
            <a href="/web/todos?id={{.ID}}">{{.Text}}</a>
            <span class="priority {{priorityName .Priority}}">{{priorityName .Priority}}</span>
          </li>
        {{else}}
          <li class="muted">Nothing to show.</li>
        {{end}}
      </ul>
      <footer>
        <span class="stats">{{.Stats.Active}} active · {{.Stats.Completed}} completed · {{.Stats.CompletionRate}}% done</span>
        <span class="actions">
          <form method="post" action="/web/todos/toggle-all"><button type="submit">Toggle all</button></form>
          {{if .Stats.Completed}}
            <form method="post" action="/web/todos/clear-completed"><button type="submit">Clear completed</button></form>
          {{end}}
        </span>
      </footer>
    </section>
    <section class="pane detail-pane">
      {{if .EditError}}<div class="error">{{.EditError}}</div>{{end}}
      {{if .SelectedTodo}}
        <h2>Edit Todo</h2>
        <form method="post" action="/web/todos/update?id={{.SelectedTodo.ID}}">
          <div class="field">
            <label for="todo-text">Text</label>
            <input id="todo-text" type="text" name="text" value="{{.EditForm.Text}}" maxlength="500" required>
          </div>
          <div class="field">
            <label for="todo-priority">Priority</label>
            <select id="todo-priority" name="priority">
              {{range .PriorityOptions}}
                <option value="{{.Value}}" {{if eq .Value $.EditForm.Priority}}selected{{end}}>{{.Label}}</option>
              {{end}}
            </select>
          </div>
          <div class="actions">
            <button type="submit">Save changes</button>
          </div>
        </form>
        <dl class="readonly">
          <dt>ID</dt><dd>{{.SelectedTodo.ID}}</dd>
          <dt>Created</dt><dd>{{formatTime .SelectedTodo.CreatedAt}}</dd>
          <dt>Updated</dt><dd>{{formatTime .SelectedTodo.UpdatedAt}}</dd>
          <dt>Completed</dt><dd>{{formatOptionalTime .SelectedTodo.CompletedAt}}</dd>
        </dl>
        <form method="post" action="/web/todos/delete?id={{.SelectedTodo.ID}}">
          <button class="danger" type="submit">Delete</button>
        </form>
      {{else}}
        <p class="muted">Select a todo to edit it.</p>
      {{end}}
      <p class="muted">API: <code>{{.APIURL}}/todos</code></p>
    </section>
  </main>
</body>
</html>
`
