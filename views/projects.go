package views

import (
	"context"
	"net/url"

	"github.com/algenord/portal/gateway"
	"github.com/algenord/portal/router"
)

type projectCard struct {
	ID           int64
	Title        string
	WorkType     string
	CustomerType string
	Description  string
	Date         string
	Thumbnail    string
}

func (v *views) cards(projects []gateway.Project) []projectCard {
	out := make([]projectCard, 0, len(projects))
	for _, p := range projects {
		c := projectCard{
			ID:           p.ID,
			Title:        p.Title,
			WorkType:     p.WorkType,
			CustomerType: p.CustomerType,
			Description:  p.Description,
			Date:         p.ExecutionDate,
		}
		if img, ok := p.Thumbnail(); ok {
			c.Thumbnail = resolveImage(v.assetBase, img.URL)
		}
		out = append(out, c)
	}
	return out
}

type heroImage struct {
	URL      string
	Title    string
	WorkType string
}

// hero picks the featured image of the first project of workType. There is
// no hero on the unfiltered page.
func (v *views) hero(projects []gateway.Project, workType string) *heroImage {
	if workType == "" {
		return nil
	}
	for _, p := range projects {
		if p.WorkType != workType {
			continue
		}
		for _, img := range p.Images {
			if img.IsFeatured {
				return &heroImage{URL: resolveImage(v.assetBase, img.URL), Title: p.Title, WorkType: p.WorkType}
			}
		}
	}
	return nil
}

func (v *views) front(ctx context.Context, _ router.Params) (router.Result, error) {
	workType := router.Query(ctx).Get("workType")
	if !valid(WorkTypes, workType) {
		workType = ""
	}
	projects, err := v.api.ListProjects(ctx, gateway.ProjectFilters{WorkType: workType}, true)
	if err != nil {
		return router.Result{}, err
	}
	return v.page(ctx, "front", struct {
		WorkType string
		Hero     *heroImage
		Projects []projectCard
	}{workType, v.hero(projects, workType), v.cards(projects)})
}

// projectsFiltersFromQuery reads filters from the location's query. ok is
// false when the query names none, in which case saved filters apply.
func projectsFiltersFromQuery(q url.Values) (Filters, bool) {
	if !q.Has("workType") && !q.Has("customerType") && !q.Has("sort") {
		return Filters{}, false
	}
	f := Filters{SortOrder: q.Get("sort")}
	if wt := q.Get("workType"); valid(WorkTypes, wt) {
		f.WorkType = wt
	}
	if ct := q.Get("customerType"); valid(CustomerTypes, ct) {
		f.CustomerType = ct
	}
	f.SortOrder = f.Sort()
	return f, true
}

func (f Filters) query() url.Values {
	q := url.Values{}
	if f.WorkType != "" {
		q.Set("workType", f.WorkType)
	}
	if f.CustomerType != "" {
		q.Set("customerType", f.CustomerType)
	}
	q.Set("sort", f.Sort())
	return q
}

func (v *views) projects(ctx context.Context, _ router.Params) (router.Result, error) {
	f, fromQuery := projectsFiltersFromQuery(router.Query(ctx))
	if !fromQuery {
		f = v.filters.Load(ctx)
	}
	projects, err := v.api.ListProjects(ctx, f.Gateway(), true)
	if err != nil {
		return router.Result{}, err
	}
	res, err := v.page(ctx, "projects", struct {
		Filters  Filters
		Projects []projectCard
	}{f, v.cards(projects)})
	if err != nil {
		return res, err
	}
	done := res.AfterCommit
	res.AfterCommit = func(ctx context.Context) {
		v.filters.Save(ctx, f)
		if done != nil {
			done(ctx)
		}
	}
	return res, nil
}

func (v *views) projectsFilter(_ context.Context, _ router.Params, form *router.Form) (string, error) {
	f, _ := projectsFiltersFromQuery(url.Values{
		"workType":     {form.Get("workType")},
		"customerType": {form.Get("customerType")},
		"sort":         {form.Get("sort")},
	})
	return withQuery("/projects", f.query()), nil
}

func (v *views) projectsReset(ctx context.Context, _ router.Params, _ *router.Form) (string, error) {
	v.filters.Clear(ctx)
	return "/projects", nil
}

func (v *views) presentation(ctx context.Context, params router.Params) (router.Result, error) {
	p, err := v.api.GetProject(ctx, params["id"])
	if err != nil {
		return router.Result{}, err
	}
	before, after := p.Gallery()
	return v.page(ctx, "presentation", struct {
		Project *gateway.Project
		Before  []gateway.Image
		After   []gateway.Image
	}{p, before, after})
}
