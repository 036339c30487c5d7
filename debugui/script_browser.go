package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/engine"
)

// ScriptBrowser lists attached script instances with paging and a name
// filter. The selected handle feeds the ScriptInspector.
type ScriptBrowser struct {
	engine        *engine.Engine
	selected      bridge.Handle
	filterText    string
	perPage       int
	currentPage   int
	sortColumn    int
	sortAscending bool
}

func NewScriptBrowser(e *engine.Engine, perPage int) *ScriptBrowser {
	return &ScriptBrowser{engine: e, perPage: perPage, sortAscending: true}
}

// Selected returns the selected instance's handle, or 0.
func (sb *ScriptBrowser) Selected() bridge.Handle {
	return sb.selected
}

func (sb *ScriptBrowser) Render() {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(420, 300), imgui.CondOnce)
	if !imgui.BeginV("Scripts", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.InputTextWithHint("##search", "Filter by script...", &sb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		sb.filterText = ""
	}

	rows := filterScripts(sb.engine.Dispatcher().Stats(), sb.filterText)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("ScriptTable", 5, tableFlags, imgui.NewVec2(0, 200), 0) {
		imgui.TableSetupColumn("Handle")
		imgui.TableSetupColumn("Script")
		imgui.TableSetupColumn("State")
		imgui.TableSetupColumn("Updates")
		imgui.TableSetupColumn("Faults")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			sb.sortColumn = int(spec.ColumnIndex())
			sb.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortSpecs.SetSpecsDirty(false)
		}
		sortScripts(rows, sb.sortColumn, sb.sortAscending)

		start, end := page(len(rows), sb.currentPage, sb.perPage)
		for _, row := range rows[start:end] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(row.Handle.String(), sb.selected == row.Handle, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				sb.selected = row.Handle
			}
			imgui.TableNextColumn()
			imgui.Text(row.Name)
			imgui.TableNextColumn()
			imgui.Text(row.State.String())
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.Updates))
			imgui.TableNextColumn()
			if row.Faults > 0 {
				imgui.TextColored(imgui.NewVec4(1, 0.4, 0.4, 1), fmt.Sprintf("%d", row.Faults))
			} else {
				imgui.Text("0")
			}
		}
		imgui.EndTable()
	}

	if len(rows) > sb.perPage {
		totalPages := (len(rows) + sb.perPage - 1) / sb.perPage
		imgui.Text(fmt.Sprintf("Page %d / %d (%d scripts)", sb.currentPage+1, totalPages, len(rows)))
		imgui.SameLine()
		if imgui.Button("Prev") && sb.currentPage > 0 {
			sb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && sb.currentPage < totalPages-1 {
			sb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d scripts", len(rows)))
	}

	imgui.End()
}

// filterScripts keeps rows whose script name contains filter, ignoring case.
func filterScripts(rows []bridge.InstanceStats, filter string) []bridge.InstanceStats {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return rows
	}
	out := rows[:0:0]
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Name), filter) {
			out = append(out, row)
		}
	}
	return out
}

// sortScripts orders rows by the browser column index: handle, name, state,
// updates, faults.
func sortScripts(rows []bridge.InstanceStats, column int, ascending bool) {
	slices.SortStableFunc(rows, func(a, b bridge.InstanceStats) int {
		var c int
		switch column {
		case 1:
			c = cmp.Compare(a.Name, b.Name)
		case 2:
			c = cmp.Compare(a.State, b.State)
		case 3:
			c = cmp.Compare(a.Updates, b.Updates)
		case 4:
			c = cmp.Compare(a.Faults, b.Faults)
		default:
			c = cmp.Compare(a.Handle, b.Handle)
		}
		if !ascending {
			c = -c
		}
		return c
	})
}

// page returns the slice bounds of page p of n rows.
func page(n, p, perPage int) (start, end int) {
	if perPage <= 0 {
		return 0, n
	}
	start = min(p*perPage, n)
	end = min(start+perPage, n)
	return start, end
}
