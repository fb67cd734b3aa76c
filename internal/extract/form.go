package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoForm is returned when a navigation page has no form to submit.
// The caller treats this as a hard parse failure for that step.
var ErrNoForm = errors.New("no form found on page")

// SelectOption is one option of an HTML select: the submit value and the
// visible text.
type SelectOption struct {
	Value string
	Text  string
}

// Form wraps the first form of a navigation page. The portal's search
// flow is a chain of server-generated forms; each step submits the
// previous step's form with one field overridden.
type Form struct {
	// action is the resolved form submission URL.
	action string

	// sel is the form's goquery selection.
	sel *goquery.Selection
}

// FirstForm parses body and returns its first form, with the action
// resolved against pageURL.
func FirstForm(body []byte, pageURL string) (*Form, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	sel := doc.Find("form").First()
	if sel.Length() == 0 {
		return nil, ErrNoForm
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	action := strings.TrimSpace(sel.AttrOr("action", ""))
	ref, err := url.Parse(action)
	if err != nil {
		return nil, fmt.Errorf("invalid form action %q: %w", action, err)
	}

	return &Form{
		action: base.ResolveReference(ref).String(),
		sel:    sel,
	}, nil
}

// Action returns the resolved form submission URL.
func (f *Form) Action() string {
	return f.action
}

// BuildPost assembles the POST data for submitting the form: all hidden
// inputs, the default value of every select not overridden, then the
// overrides on top. This mirrors what a browser would submit, which is
// what the legacy portal expects.
func (f *Form) BuildPost(overrides url.Values) url.Values {
	data := url.Values{}

	f.sel.Find(`input[type="hidden"]`).Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		data.Set(name, s.AttrOr("value", ""))
	})

	f.sel.Find("select").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, overridden := overrides[name]; overridden {
			return
		}
		selected := s.Find("option[selected]").First()
		if selected.Length() == 0 {
			selected = s.Find("option").First()
		}
		if selected.Length() > 0 {
			data.Set(name, selected.AttrOr("value", ""))
		}
	})

	for name, values := range overrides {
		for _, v := range values {
			data.Set(name, v)
		}
	}

	return data
}

// OptionByText finds the select owning an option with the given visible
// text and returns that select's name and the option's value.
func (f *Form) OptionByText(text string) (field, value string, ok bool) {
	f.sel.Find("select").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		s.Find("option").EachWithBreak(func(_ int, o *goquery.Selection) bool {
			if strings.TrimSpace(o.Text()) == text {
				field = s.AttrOr("name", "")
				value = o.AttrOr("value", "")
				ok = true
				return false
			}
			return true
		})
		return !ok
	})
	return field, value, ok
}

// LargestSelect returns the select with the most options. On the portal's
// search form that is always the subject list.
func (f *Form) LargestSelect() *goquery.Selection {
	var largest *goquery.Selection
	maxOptions := 0

	f.sel.Find("select").Each(func(_ int, s *goquery.Selection) {
		if n := s.Find("option").Length(); n > maxOptions {
			maxOptions = n
			largest = s
		}
	})

	return largest
}

// schoolSelectKeywords identify the school dropdown by its field name.
var schoolSelectKeywords = []string{"school", "inst", "college", "univ"}

// SchoolSelect returns the school dropdown, found by name keyword with
// the largest select as fallback.
func (f *Form) SchoolSelect() *goquery.Selection {
	var found *goquery.Selection

	f.sel.Find("select").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := strings.ToLower(s.AttrOr("name", ""))
		for _, kw := range schoolSelectKeywords {
			if strings.Contains(name, kw) {
				found = s
				return false
			}
		}
		return true
	})

	if found != nil {
		return found
	}
	return f.LargestSelect()
}

// SubmitButton finds the first submit input whose value contains any of
// the keywords (case-insensitive) and returns its name and value for
// inclusion in the POST data.
func (f *Form) SubmitButton(keywords ...string) (name, value string, ok bool) {
	f.sel.Find(`input[type="submit"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v := strings.ToLower(s.AttrOr("value", ""))
		for _, kw := range keywords {
			if strings.Contains(v, strings.ToLower(kw)) {
				name = s.AttrOr("name", "")
				value = s.AttrOr("value", "")
				ok = true
				return false
			}
		}
		return true
	})
	return name, value, ok
}

// Options harvests a select's options, skipping entries with an empty
// value or empty text (the portal uses those as placeholders).
func Options(sel *goquery.Selection) []SelectOption {
	if sel == nil {
		return nil
	}

	opts := make([]SelectOption, 0)
	sel.Find("option").Each(func(_ int, o *goquery.Selection) {
		value := o.AttrOr("value", "")
		text := strings.TrimSpace(o.Text())
		if value != "" && text != "" {
			opts = append(opts, SelectOption{Value: value, Text: text})
		}
	})

	return opts
}

// FieldName returns the select's name attribute, empty if sel is nil.
func FieldName(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	return sel.AttrOr("name", "")
}
