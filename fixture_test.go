package modelgraph_test

import (
	"fmt"

	mg "github.com/reoring/modelgraph"
)

// Fixture graph: Project -> Page -> Row, with a finished-loading hook on
// every level writing into the owning project's log.

type Status int

const (
	StatusDraft Status = iota
	StatusPublished
)

type Project struct {
	mg.Base
	Name     string
	Version  int
	Status   Status
	Tags     []string
	Note     *string
	Settings map[string]float64
	Extra    any
	Pages    []*Page

	log []string
}

type Page struct {
	mg.Base
	Title  string
	Weight float64
	Rows   []*Row

	sawRows int
}

type Row struct {
	mg.Base
	Label   string
	Count   int32
	Enabled bool
	Big     int64

	sawTitle string
}

func projectOf(o mg.ModelObject) *Project {
	for ; o != nil; o = o.Owner() {
		if p, ok := o.(*Project); ok {
			return p
		}
	}
	return nil
}

func (p *Project) AfterDeserialize() {
	p.log = append(p.log, "project:"+p.Name)
}

func (p *Page) AfterDeserialize() {
	// Every row of the page is complete by now.
	p.sawRows = len(p.Rows)
	if proj := projectOf(p); proj != nil {
		proj.log = append(proj.log, "page:"+p.Title)
	}
}

func (r *Row) AfterDeserialize() {
	page := r.Owner().(*Page)
	r.sawTitle = page.Title
	if proj := projectOf(r); proj != nil {
		proj.log = append(proj.log, fmt.Sprintf("row:%s/%s", page.Title, r.Label))
	}
}

var rowMap = mg.NewMap("Row",
	func(owner mg.ModelObject) *Row {
		r := &Row{}
		r.InitBase(owner)
		return r
	},
	mg.Prop("label", mg.String[string](), func(r *Row) *string { return &r.Label }),
	mg.Prop("count", mg.Int[int32](), func(r *Row) *int32 { return &r.Count }),
	mg.Prop("enabled", mg.Bool(), func(r *Row) *bool { return &r.Enabled }, mg.WithDefault(true)),
	mg.Prop("big", mg.Int[int64](), func(r *Row) *int64 { return &r.Big }, mg.WithDefault[int64](0)),
)

var pageMap = mg.NewMap("Page",
	func(owner mg.ModelObject) *Page {
		p := &Page{}
		p.InitBase(owner)
		return p
	},
	mg.Prop("title", mg.String[string](), func(p *Page) *string { return &p.Title }),
	mg.Prop("weight", mg.Float[float64](), func(p *Page) *float64 { return &p.Weight }),
	mg.Prop("rows", mg.List[*Row](rowMap), func(p *Page) *[]*Row { return &p.Rows }),
)

var statusNames = map[Status]string{StatusDraft: "draft", StatusPublished: "published"}

var projectMap = mg.NewMap("Project",
	func(owner mg.ModelObject) *Project {
		p := &Project{}
		p.InitBase(owner)
		return p
	},
	mg.Prop("name", mg.String[string](), func(p *Project) *string { return &p.Name }),
	mg.Prop("version", mg.Int[int](), func(p *Project) *int { return &p.Version }, mg.WithDefault(1)),
	mg.Prop("status", mg.Enum(statusNames), func(p *Project) *Status { return &p.Status }),
	mg.Prop("tags", mg.List(mg.String[string]()), func(p *Project) *[]string { return &p.Tags }),
	mg.Prop("note", mg.Nullable(mg.String[string]()), func(p *Project) **string { return &p.Note }),
	mg.Prop("settings", mg.Dict(mg.Float[float64]()), func(p *Project) *map[string]float64 { return &p.Settings }),
	mg.Prop("extra", mg.Any(), func(p *Project) *any { return &p.Extra }, mg.OmitWhen(func(v any) bool { return v == nil })),
	mg.Prop("pages", mg.List[*Page](pageMap), func(p *Project) *[]*Page { return &p.Pages }),
)

// Workspace is an alternative owner for copies.
type Workspace struct{ mg.Base }

func newWorkspace() *Workspace {
	w := &Workspace{}
	w.InitBase(nil)
	return w
}

func sampleProject() *Project {
	p := projectMap.New(nil)
	p.Name = "atlas"
	p.Version = 3
	p.Status = StatusPublished
	p.Tags = []string{"a", "b"}
	note := "keep <this> & that"
	p.Note = &note
	p.Settings = map[string]float64{"ratio": 0.1, "scale": 2.5}
	for i, title := range []string{"intro", "body"} {
		page := pageMap.New(p)
		page.Title = title
		page.Weight = float64(i) + 0.25
		for j := 0; j < 2; j++ {
			row := rowMap.New(page)
			row.Label = fmt.Sprintf("r%d", j)
			row.Count = int32(10*i + j)
			row.Enabled = j == 0
			page.Rows = append(page.Rows, row)
		}
		p.Pages = append(p.Pages, page)
	}
	return p
}
