// Package templates renders the OrderSleuth UI as templ components.
//
// The UI is a single page walking the operator through the pipeline:
// upload order exports, merge them into one table, analyze for
// suspicious buyers, download the result. Action responses re-render
// the workflow fragment; full pages are only built on initial load.
package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/ordersleuth/ordersleuth/internal/core"
)

// View carries everything the page and the workflow fragment render:
// the session snapshot, the working analyzer columns, the registered
// profiles with the key of the one matching the working columns, a
// capped preview of the result, and the upload limits shown as form
// hints.
type View struct {
	Status    *core.SessionStatus
	Columns   core.AnalysisColumns
	Profiles  []core.ColumnProfile
	Selected  string
	Preview   *core.TablePreview
	MaxFiles  int
	MaxFileMB int64
}

// Home renders the full page.
func Home(v View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		writePageOpen(&b)
		writeWorkflow(&b, v)
		writePageClose(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Workflow renders the three-step pipeline fragment. Every mutating
// action responds with this so the whole flow stays consistent after
// each step.
func Workflow(v View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		writeWorkflow(&b, v)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writePageOpen(b *strings.Builder) {
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>OrderSleuth</title>
<link rel="stylesheet" href="/static/app.css">
<script src="https://unpkg.com/htmx.org@1.9.12" defer></script>
<script src="/static/app.js" defer></script>
</head>
<body>
<header class="topbar">
<div>
<h1>OrderSleuth</h1>
<p class="tagline">Flags buyers whose orders span multiple dates and multiple shipping addresses</p>
</div>
<button class="btn btn-quiet" hx-post="/api/reset" hx-target="#workflow" hx-swap="innerHTML" hx-confirm="Discard all uploaded data for this session?">Start over</button>
</header>
<main>
<div id="flash"></div>
<div id="workflow">
`)
}

func writePageClose(b *strings.Builder) {
	b.WriteString(`</div>
<section class="panel panel-activity">
<details>
<summary hx-get="/api/activity" hx-target="#activity-feed" hx-trigger="click once">Recent activity</summary>
<div id="activity-feed"></div>
</details>
</section>
</main>
</body>
</html>
`)
}
