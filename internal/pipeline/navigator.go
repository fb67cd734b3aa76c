package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/transfermap/transfermap/internal/config"
	"github.com/transfermap/transfermap/internal/extract"
	"github.com/transfermap/transfermap/internal/fetch"
)

// PageFetcher issues one rate-limited page request. Satisfied by
// fetch.Fetcher; an interface so orchestrator tests can serve canned
// pages.
type PageFetcher interface {
	Fetch(ctx context.Context, req fetch.Request) ([]byte, error)
}

// Navigator walks the portal's form chain. The portal exposes no
// enumerable URLs: each step is a server-generated form, and the next
// step's location comes from that form's action.
type Navigator struct {
	// fetcher issues the navigation requests.
	fetcher PageFetcher

	// baseURL is the entry point of the search flow.
	baseURL string

	// stateName is the visible text of the state option.
	stateName string

	// level is the visible text of the course level option.
	level string

	// semester is the visible text of the term option.
	semester string

	// schoolFilter is a case-insensitive school name prefix, empty for
	// all schools.
	schoolFilter string

	// subjectFilter is a subject label prefix, empty for all subjects.
	subjectFilter string

	// logger for structured logging.
	logger *slog.Logger
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithNavigatorLogger sets a custom logger.
func WithNavigatorLogger(logger *slog.Logger) NavigatorOption {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// NewNavigator creates a Navigator for the crawl target described by cfg.
func NewNavigator(fetcher PageFetcher, cfg *config.Config, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		fetcher:       fetcher,
		baseURL:       cfg.BaseURL,
		stateName:     cfg.StateName,
		level:         cfg.Level,
		semester:      cfg.Semester,
		schoolFilter:  cfg.SchoolNameFilter,
		subjectFilter: cfg.SubjectPrefixFilter,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// SchoolPage is the school selection step: the parsed form plus the
// filtered school list harvested from it.
type SchoolPage struct {
	// form is the school selection form.
	form *extract.Form

	// schoolField is the name of the school select.
	schoolField string

	// Schools are the selectable schools, after filtering.
	Schools []extract.SelectOption
}

// SchoolList walks the first three navigation steps: answer the US
// institution question, select the state, and harvest the school list.
func (n *Navigator) SchoolList(ctx context.Context) (*SchoolPage, error) {
	// Step 1: the entry page asks whether the institution is in the US.
	body, err := n.fetcher.Fetch(ctx, fetch.Request{Method: "GET", URL: n.baseURL, UnitID: "nav-us-question"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entry page: %w", err)
	}

	form, err := extract.FirstForm(body, n.baseURL)
	if err != nil {
		return nil, fmt.Errorf("entry page: %w", err)
	}

	overrides := url.Values{}
	if name, value, ok := form.SubmitButton("yes"); ok && name != "" {
		overrides.Set(name, value)
	} else if !ok {
		return nil, fmt.Errorf("entry page: no US-institution submit button")
	}

	body, err = n.submit(ctx, form, overrides, "nav-us-question")
	if err != nil {
		return nil, err
	}

	// Step 2: select the state by its visible option text.
	form, err = extract.FirstForm(body, form.Action())
	if err != nil {
		return nil, fmt.Errorf("state page: %w", err)
	}

	field, value, ok := form.OptionByText(n.stateName)
	if !ok {
		return nil, fmt.Errorf("state page: state %q not offered", n.stateName)
	}
	overrides = url.Values{field: {value}}
	if name, v, ok := form.SubmitButton("state", "get"); ok && name != "" {
		overrides.Set(name, v)
	}

	body, err = n.submit(ctx, form, overrides, "nav-state")
	if err != nil {
		return nil, err
	}

	// Step 3: harvest the school list.
	form, err = extract.FirstForm(body, form.Action())
	if err != nil {
		return nil, fmt.Errorf("school page: %w", err)
	}

	sel := form.SchoolSelect()
	schoolField := extract.FieldName(sel)
	if schoolField == "" {
		return nil, fmt.Errorf("school page: no school select found")
	}

	schools := extract.Options(sel)
	if n.schoolFilter != "" {
		filtered := schools[:0]
		for _, s := range schools {
			if strings.HasPrefix(strings.ToLower(s.Text), strings.ToLower(n.schoolFilter)) {
				filtered = append(filtered, s)
			}
		}
		schools = filtered
	}

	n.logger.Info("school list harvested",
		"schools", len(schools),
		"filter", n.schoolFilter,
	)

	return &SchoolPage{form: form, schoolField: schoolField, Schools: schools}, nil
}

// SubjectSearch is the per-school search step: everything needed to
// submit one subject search, with the level and term already bound.
type SubjectSearch struct {
	// action is the search form's submission URL.
	action string

	// base is the form data with level and term bound, subject left at
	// its default.
	base url.Values

	// subjectField is the name of the subject select.
	subjectField string

	// Subjects are the selectable subjects, after filtering.
	Subjects []extract.SelectOption
}

// SubjectSearch selects one school and parses the subject/level/term form
// it leads to.
func (n *Navigator) SubjectSearch(ctx context.Context, page *SchoolPage, school extract.SelectOption) (*SubjectSearch, error) {
	overrides := url.Values{page.schoolField: {school.Value}}
	if name, v, ok := page.form.SubmitButton("school", "get"); ok && name != "" {
		overrides.Set(name, v)
	}

	body, err := n.submit(ctx, page.form, overrides, "nav-school-"+school.Value)
	if err != nil {
		return nil, fmt.Errorf("school %q: %w", school.Text, err)
	}

	form, err := extract.FirstForm(body, page.form.Action())
	if err != nil {
		return nil, fmt.Errorf("school %q subject page: %w", school.Text, err)
	}

	// The subject list is always the largest select on the search form.
	sel := form.LargestSelect()
	subjectField := extract.FieldName(sel)
	if subjectField == "" {
		return nil, fmt.Errorf("school %q subject page: no subject select found", school.Text)
	}

	subjects := extract.Options(sel)
	if n.subjectFilter != "" {
		filtered := subjects[:0]
		for _, s := range subjects {
			if strings.HasPrefix(s.Text, n.subjectFilter) {
				filtered = append(filtered, s)
			}
		}
		subjects = filtered
	}

	levelField, levelValue, ok := form.OptionByText(n.level)
	if !ok {
		return nil, fmt.Errorf("school %q subject page: level %q not offered", school.Text, n.level)
	}
	termField, termValue, ok := form.OptionByText(n.semester)
	if !ok {
		return nil, fmt.Errorf("school %q subject page: semester %q not offered", school.Text, n.semester)
	}

	base := url.Values{
		levelField: {levelValue},
		termField:  {termValue},
	}
	if name, v, ok := form.SubmitButton("course", "get", "submit"); ok && name != "" {
		base.Set(name, v)
	}

	n.logger.Info("subjects harvested",
		"school", school.Text,
		"subjects", len(subjects),
		"filter", n.subjectFilter,
	)

	return &SubjectSearch{
		action:       form.Action(),
		base:         form.BuildPost(base),
		subjectField: subjectField,
		Subjects:     subjects,
	}, nil
}

// Request builds the precomputed POST for one subject's result page.
func (s *SubjectSearch) Request(subject extract.SelectOption, unitID string) fetch.Request {
	data := url.Values{}
	for k, vs := range s.base {
		for _, v := range vs {
			data.Add(k, v)
		}
	}
	data.Set(s.subjectField, subject.Value)

	return fetch.Request{
		Method: "POST",
		URL:    s.action,
		Form:   data,
		UnitID: unitID,
	}
}

// submit posts a form with the given field overrides.
func (n *Navigator) submit(ctx context.Context, form *extract.Form, overrides url.Values, unitID string) ([]byte, error) {
	req := fetch.Request{
		Method: "POST",
		URL:    form.Action(),
		Form:   form.BuildPost(overrides),
		UnitID: unitID,
	}

	body, err := n.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit %s: %w", form.Action(), err)
	}
	return body, nil
}
