package feedclient

import (
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const controlSelector = "input[name], select[name], textarea[name]"

// serialize encodes the successful controls of form in document order, the
// way a browser serialises a form for submission.
func serialize(form *goquery.Selection) string {
	var parts []string
	add := func(name, value string) {
		parts = append(parts, url.QueryEscape(name)+"="+url.QueryEscape(value))
	}

	form.Find(controlSelector).Each(func(_ int, s *goquery.Selection) {
		if disabled(s) {
			return
		}
		name := s.AttrOr("name", "")
		switch goquery.NodeName(s) {
		case "select":
			for _, v := range selectedOptions(s) {
				add(name, v)
			}
		case "textarea":
			add(name, s.Text())
		default:
			switch inputType(s) {
			case "submit", "button", "reset", "file", "image":
			case "checkbox", "radio":
				if checked(s) {
					add(name, s.AttrOr("value", "on"))
				}
			default:
				add(name, s.AttrOr("value", ""))
			}
		}
	})
	return strings.Join(parts, "&")
}

// setControl updates every control named name to carry values.
func setControl(form *goquery.Selection, name string, values []string) {
	form.Find(controlSelector).Each(func(_ int, s *goquery.Selection) {
		if s.AttrOr("name", "") != name {
			return
		}
		switch goquery.NodeName(s) {
		case "select":
			s.Find("option").Each(func(_ int, opt *goquery.Selection) {
				if slices.Contains(values, optionValue(opt)) {
					opt.SetAttr("selected", "selected")
				} else {
					opt.RemoveAttr("selected")
				}
			})
		case "textarea":
			s.SetText(first(values))
		default:
			switch inputType(s) {
			case "checkbox", "radio":
				if slices.Contains(values, s.AttrOr("value", "on")) {
					s.SetAttr("checked", "checked")
				} else {
					s.RemoveAttr("checked")
				}
			default:
				s.SetAttr("value", first(values))
			}
		}
	})
}

func selectedOptions(sel *goquery.Selection) []string {
	var out []string
	enabled := sel.Find("option").FilterFunction(func(_ int, o *goquery.Selection) bool {
		return !disabled(o)
	})
	enabled.Each(func(_ int, o *goquery.Selection) {
		if _, ok := o.Attr("selected"); ok {
			out = append(out, optionValue(o))
		}
	})
	if _, multiple := sel.Attr("multiple"); len(out) == 0 && !multiple && enabled.Length() > 0 {
		out = append(out, optionValue(enabled.First()))
	}
	return out
}

func optionValue(o *goquery.Selection) string {
	if v, ok := o.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(o.Text())
}

func inputType(s *goquery.Selection) string {
	return strings.ToLower(s.AttrOr("type", "text"))
}

func checked(s *goquery.Selection) bool {
	_, ok := s.Attr("checked")
	return ok
}

func disabled(s *goquery.Selection) bool {
	_, ok := s.Attr("disabled")
	return ok
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
