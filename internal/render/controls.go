package render

import (
	"context"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/definition"
)

// visibleOptions is how many radio/checkbox rows show before "See More".
const visibleOptions = 10

// ControlInput is a filter control with its resolved values.
type ControlInput struct {
	Control  definition.Control
	Options  []definition.Option
	Selected []string
}

// FieldName is the form field name a control submits under.
func FieldName(c definition.Control) string {
	switch c.Kind {
	case definition.ControlMeta:
		return "meta-" + c.Name
	case definition.ControlSort:
		return "filter-sort"
	case definition.ControlSearch:
		return "filter-search"
	default:
		return "filter-" + c.Name
	}
}

// Control renders one filter control.
func (r *Renderer) Control(in ControlInput) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		ww := &htmlWriter{w: w}
		style := in.Control.Style
		if in.Control.Kind == definition.ControlSearch {
			style = "search"
		}
		ww.raw(`<div class="cty-archive-filter cty-archive-filter--horizontal cty-archive-filter--`)
		ww.text(string(style))
		ww.raw(`">`)
		if in.Control.Label != "" {
			ww.raw(`<span class="cty-archive-filter__label">`)
			ww.text(in.Control.Label)
			ww.raw(`</span>`)
		}

		switch {
		case in.Control.Kind == definition.ControlSearch:
			r.writeSearch(ww, in)
		case in.Control.Style == definition.StyleSelect || in.Control.Kind == definition.ControlSort:
			r.writeSelect(ww, in)
		default:
			r.writeChoices(ww, in)
		}

		ww.raw(`</div>`)
		return ww.err
	})
}

func (r *Renderer) writeSelect(ww *htmlWriter, in ControlInput) {
	name := FieldName(in.Control)
	isSort := in.Control.Kind == definition.ControlSort
	class := "cty-archive-filter__inner cty-archive-filter__inner--select"
	if isSort {
		class += " cty-archive-filter__inner--sort"
	}
	selected := ""
	if len(in.Selected) > 0 {
		selected = in.Selected[0]
	}

	ww.raw(`<select name="`)
	ww.text(name)
	ww.raw(`" data-filter="`)
	ww.text(name)
	ww.raw(`" class="`)
	ww.text(class)
	ww.raw(`">`)

	if in.Control.Placeholder != "" {
		ww.raw(`<option`)
		if selected == "" {
			ww.raw(` selected`)
		}
		ww.raw(` disabled="disabled" style="display: none;">`)
		ww.text(in.Control.Placeholder)
		ww.raw(`</option>`)
	}

	options := in.Options
	if isSort {
		options = definition.SortOptions
	} else {
		options = append([]definition.Option{{Label: r.showAll(in.Control), Value: ""}}, options...)
	}
	for _, o := range options {
		ww.raw(`<option value="`)
		ww.text(o.Value)
		ww.raw(`"`)
		if o.Value != "" && o.Value == selected {
			ww.raw(` selected`)
		}
		ww.raw(`>`)
		ww.text(r.label(o.Label))
		ww.raw(`</option>`)
	}
	ww.raw(`</select>`)
}

func (r *Renderer) writeChoices(ww *htmlWriter, in ControlInput) {
	inputType := "checkbox"
	switch in.Control.Style {
	case definition.StyleRadio, definition.StyleButton:
		inputType = "radio"
	}
	class := "cty-archive-filter__inner cty-archive-filter__inner--" + string(in.Control.Style)
	name := FieldName(in.Control)
	dataFilter := name
	if inputType == "checkbox" {
		name += "[]"
	}

	options := in.Options
	if inputType == "radio" {
		options = append([]definition.Option{{Label: r.showAll(in.Control), Value: ""}}, options...)
	}

	for row, o := range options {
		checked := slices.Contains(in.Selected, o.Value) || (o.Value == "" && len(in.Selected) == 0)
		id := dataFilter + "-" + o.Value

		ww.raw(`<div class="`)
		ww.text(class)
		if row >= visibleOptions {
			ww.raw(` is-hidden`)
		}
		ww.raw(`"><input class="cty-archive-filter__inner__input" type="`)
		ww.raw(inputType)
		ww.raw(`" id="`)
		ww.text(id)
		ww.raw(`" name="`)
		ww.text(name)
		ww.raw(`" value="`)
		ww.text(o.Value)
		ww.raw(`" data-filter="`)
		ww.text(dataFilter)
		ww.raw(`"`)
		if checked {
			ww.raw(` checked`)
		}
		ww.raw(`/><label class="cty-archive-filter__inner__label" for="`)
		ww.text(id)
		ww.raw(`">`)
		ww.text(r.label(o.Label))
		ww.raw(`</label></div>`)
	}

	if len(options) >= visibleOptions {
		ww.raw(`<span class="cty-archive-filter__see-more">`)
		ww.text(r.printer.Sprintf("See More"))
		ww.raw(`</span>`)
	}
}

func (r *Renderer) writeSearch(ww *htmlWriter, in ControlInput) {
	placeholder := in.Control.Placeholder
	if placeholder == "" {
		placeholder = r.printer.Sprintf("Search")
	}
	value := ""
	if len(in.Selected) > 0 {
		value = in.Selected[0]
	}
	debounce := in.Control.Debounce
	if debounce <= 0 {
		debounce = 200
	}
	ww.raw(`<div class="cty-archive-filter__inner cty-archive-filter__inner--search">`)
	ww.raw(`<input type="search" class="cty-archive-filter__inner__input" name="`)
	ww.text(FieldName(in.Control))
	ww.raw(`" value="`)
	ww.text(value)
	ww.raw(`" placeholder="`)
	ww.text(placeholder)
	ww.raw(`" data-debounce="`)
	ww.raw(strconv.Itoa(debounce))
	ww.raw(`"/></div>`)
}

// label translates s when the catalog knows it. Labels containing verbs are
// printed as is.
func (r *Renderer) label(s string) string {
	if strings.Contains(s, "%") {
		return s
	}
	return r.printer.Sprintf(s)
}

func (r *Renderer) showAll(c definition.Control) string {
	if c.ShowAll != "" {
		return c.ShowAll
	}
	return definition.DefaultShowAll
}

// htmlWriter writes raw markup and escaped text, keeping the first error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}
