package templates

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/ordersleuth/ordersleuth/internal/core"
)

// maxBuyersShown caps the suspicious-buyer chips rendered inline;
// the full list is always in the export.
const maxBuyersShown = 12

// ErrorAlert renders the fragment swapped into the flash area when an
// action fails.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert"><strong>`)
		b.WriteString(esc(message))
		b.WriteString(`</strong>`)
		if action != "" {
			b.WriteString(` <span class="alert-action">`)
			b.WriteString(esc(action))
			b.WriteString(`</span>`)
		}
		b.WriteString(` <span class="alert-code">`)
		b.WriteString(esc(code))
		b.WriteString(`</span></div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ActivityList renders the recent-actions feed.
func ActivityList(entries []core.ActivityEntry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		if len(entries) == 0 {
			b.WriteString(`<p class="empty">No actions yet.</p>`)
		} else {
			b.WriteString(`<ul class="activity-list">`)
			for i := range entries {
				e := &entries[i]
				b.WriteString(`<li><time>`)
				b.WriteString(esc(e.CreatedAt.Format("15:04:05")))
				b.WriteString(`</time> <span class="kind">`)
				b.WriteString(esc(string(e.Kind)))
				b.WriteString(`</span>`)
				if e.Detail != "" {
					b.WriteString(` <span class="detail">`)
					b.WriteString(esc(e.Detail))
					b.WriteString(`</span>`)
				}
				if e.Ok() {
					b.WriteString(` <span class="badge badge-ok">ok</span>`)
				} else {
					b.WriteString(` <span class="badge badge-failed">`)
					b.WriteString(esc(e.Outcome))
					b.WriteString(`</span>`)
				}
				b.WriteString(` <span class="duration">`)
				b.WriteString(strconv.FormatInt(e.DurationMs, 10))
				b.WriteString(`ms</span></li>`)
			}
			b.WriteString(`</ul>`)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeWorkflow(b *strings.Builder, v View) {
	writeUploadSection(b, v)
	writeMergeSection(b, v)
	writeAnalyzeSection(b, v)
}

func writeUploadSection(b *strings.Builder, v View) {
	b.WriteString(`<section class="panel" id="step-upload">
<h2><span class="step">1</span> Upload order exports</h2>
<form hx-post="/api/upload" hx-target="#workflow" hx-swap="innerHTML" method="post" action="/api/upload" enctype="multipart/form-data">
<input type="file" name="files" multiple accept=".csv,.xlsx,.xls" required>
<button type="submit" class="btn">Add to batch</button>
</form>
<p class="hint">CSV or Excel, up to `)
	b.WriteString(strconv.Itoa(v.MaxFiles))
	b.WriteString(` files per upload, `)
	b.WriteString(strconv.FormatInt(v.MaxFileMB, 10))
	b.WriteString(` MB each. All files must share the same columns.</p>`)

	if len(v.Status.Files) > 0 {
		writeBatchTable(b, v.Status.Files)
		b.WriteString(`<button class="btn btn-quiet" hx-delete="/api/batch" hx-target="#workflow" hx-swap="innerHTML">Clear batch</button>`)
	}
	b.WriteString(`</section>`)
}

func writeBatchTable(b *strings.Builder, files []core.FileResult) {
	b.WriteString(`<table class="data"><thead><tr><th>File</th><th>Status</th><th>Rows</th><th>Columns</th></tr></thead><tbody>`)
	for i := range files {
		f := &files[i]
		b.WriteString(`<tr><td>`)
		b.WriteString(esc(f.FileName))
		b.WriteString(`</td><td><span class="badge badge-`)
		b.WriteString(string(f.Status))
		b.WriteString(`">`)
		b.WriteString(string(f.Status))
		b.WriteString(`</span>`)
		if f.Reason != "" {
			b.WriteString(` <span class="reason">`)
			b.WriteString(esc(f.Reason))
			b.WriteString(`</span>`)
		}
		b.WriteString(`</td><td class="num">`)
		if f.Status == core.FileLoaded {
			b.WriteString(strconv.Itoa(f.RowCount))
			b.WriteString(`</td><td class="num">`)
			b.WriteString(strconv.Itoa(f.ColumnCount))
		} else {
			b.WriteString(`&ndash;</td><td class="num">&ndash;`)
		}
		b.WriteString(`</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)
}

func writeMergeSection(b *strings.Builder, v View) {
	b.WriteString(`<section class="panel" id="step-merge">
<h2><span class="step">2</span> Merge into one table</h2>`)

	b.WriteString(`<button class="btn" hx-post="/api/merge" hx-target="#workflow" hx-swap="innerHTML"`)
	if v.Status.BatchSize == 0 {
		b.WriteString(` disabled`)
	}
	b.WriteString(`>Merge `)
	b.WriteString(strconv.Itoa(v.Status.BatchSize))
	b.WriteString(` files</button>`)

	if v.Status.Merged {
		b.WriteString(`<p class="summary">Merged table: <strong>`)
		b.WriteString(strconv.Itoa(v.Status.MergedRows))
		b.WriteString(`</strong> rows, <strong>`)
		b.WriteString(strconv.Itoa(len(v.Status.Columns)))
		b.WriteString(`</strong> columns.</p><p class="chips">`)
		for _, col := range v.Status.Columns {
			b.WriteString(`<span class="chip">`)
			b.WriteString(esc(col))
			b.WriteString(`</span>`)
		}
		b.WriteString(`</p>`)
	} else if v.Status.BatchSize == 0 {
		b.WriteString(`<p class="hint">Upload at least one readable file first.</p>`)
	}
	b.WriteString(`</section>`)
}

func writeAnalyzeSection(b *strings.Builder, v View) {
	b.WriteString(`<section class="panel" id="step-analyze">
<h2><span class="step">3</span> Flag suspicious buyers</h2>
<form hx-post="/api/analyze" hx-target="#workflow" hx-swap="innerHTML" method="post" action="/api/analyze">`)

	writeProfileSelect(b, v)
	writeColumnInput(b, "buyer", "Buyer column", v.Columns.Buyer)
	writeColumnInput(b, "date", "Date column", v.Columns.Date)
	writeColumnInput(b, "address", "Address column", v.Columns.Address)

	b.WriteString(`<button type="submit" class="btn"`)
	if !v.Status.Merged {
		b.WriteString(` disabled`)
	}
	b.WriteString(`>Analyze</button>
</form>`)

	if v.Status.Analysis != nil {
		writeAnalysisReport(b, v.Status.Analysis)
		if v.Preview != nil {
			writePreviewTable(b, v.Preview)
		}
		if v.Status.HasResult && v.Status.Analysis.HasFindings() {
			b.WriteString(`<a class="btn btn-download" href="/api/export">Download `)
			b.WriteString(esc(core.ExportFileName))
			b.WriteString(`</a>`)
		}
	}
	b.WriteString(`</section>`)
}

func writeProfileSelect(b *strings.Builder, v View) {
	b.WriteString(`<label class="field">Column profile <select name="profile" id="profile-select"><option value="">Custom</option>`)
	for _, p := range v.Profiles {
		b.WriteString(`<option value="`)
		b.WriteString(esc(p.Key))
		b.WriteString(`" data-buyer="`)
		b.WriteString(esc(p.Columns.Buyer))
		b.WriteString(`" data-date="`)
		b.WriteString(esc(p.Columns.Date))
		b.WriteString(`" data-address="`)
		b.WriteString(esc(p.Columns.Address))
		b.WriteString(`"`)
		if p.Key == v.Selected {
			b.WriteString(` selected`)
		}
		b.WriteString(`>`)
		b.WriteString(esc(p.Label))
		b.WriteString(`</option>`)
	}
	b.WriteString(`</select></label>`)
}

func writeColumnInput(b *strings.Builder, name, label, value string) {
	b.WriteString(`<label class="field">`)
	b.WriteString(label)
	b.WriteString(` <input type="text" name="`)
	b.WriteString(name)
	b.WriteString(`" value="`)
	b.WriteString(esc(value))
	b.WriteString(`"></label>`)
}

func writeAnalysisReport(b *strings.Builder, rep *core.AnalysisReport) {
	b.WriteString(`<div class="report">`)
	if rep.HasFindings() {
		b.WriteString(`<p class="summary"><strong>`)
		b.WriteString(strconv.Itoa(rep.SuspiciousCount))
		b.WriteString(`</strong> suspicious buyers out of `)
		b.WriteString(strconv.Itoa(rep.BuyerCount))
		b.WriteString(`, covering <strong>`)
		b.WriteString(strconv.Itoa(rep.ResultRows))
		b.WriteString(`</strong> orders.</p>`)
		writeBuyerChips(b, rep.SuspiciousBuyers)
	} else {
		b.WriteString(`<p class="summary">No suspicious buyers found across `)
		b.WriteString(strconv.Itoa(rep.BuyerCount))
		b.WriteString(` buyers.</p>`)
	}
	b.WriteString(`<p class="hint">Examined `)
	b.WriteString(strconv.Itoa(rep.TotalRows))
	b.WriteString(` rows`)
	if rep.ExcludedRows > 0 {
		b.WriteString(`, excluded `)
		b.WriteString(strconv.Itoa(rep.ExcludedRows))
		b.WriteString(` without a buyer`)
	}
	b.WriteString(`.</p></div>`)
}

func writeBuyerChips(b *strings.Builder, buyers []string) {
	b.WriteString(`<p class="chips">`)
	shown := buyers
	if len(shown) > maxBuyersShown {
		shown = shown[:maxBuyersShown]
	}
	for _, buyer := range shown {
		b.WriteString(`<span class="chip chip-flagged">`)
		b.WriteString(esc(buyer))
		b.WriteString(`</span>`)
	}
	if rest := len(buyers) - len(shown); rest > 0 {
		b.WriteString(`<span class="chip">+`)
		b.WriteString(strconv.Itoa(rest))
		b.WriteString(` more</span>`)
	}
	b.WriteString(`</p>`)
}

func writePreviewTable(b *strings.Builder, p *core.TablePreview) {
	b.WriteString(`<table class="data"><thead><tr>`)
	for _, col := range p.Columns {
		b.WriteString(`<th>`)
		b.WriteString(esc(col))
		b.WriteString(`</th>`)
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, row := range p.Rows {
		b.WriteString(`<tr>`)
		for _, cell := range row {
			b.WriteString(`<td>`)
			b.WriteString(esc(cell))
			b.WriteString(`</td>`)
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
	if p.Truncated {
		b.WriteString(`<p class="hint">Showing the first `)
		b.WriteString(strconv.Itoa(len(p.Rows)))
		b.WriteString(` of `)
		b.WriteString(strconv.Itoa(p.TotalRows))
		b.WriteString(` rows. The download contains all of them.</p>`)
	}
}

func esc(s string) string {
	return templ.EscapeString(s)
}
