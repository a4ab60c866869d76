package modelgraph_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mg "github.com/reoring/modelgraph"
	"github.com/reoring/modelgraph/i18n"
)

func requireSameProject(t *testing.T, want, got *Project) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Version, got.Version)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Tags, got.Tags)
	assert.Equal(t, want.Note, got.Note)
	assert.Equal(t, want.Settings, got.Settings)
	require.Len(t, got.Pages, len(want.Pages))
	for i, wp := range want.Pages {
		gp := got.Pages[i]
		assert.Same(t, got, gp.Owner().(*Project), "page owner")
		assert.Equal(t, wp.Title, gp.Title)
		assert.Equal(t, wp.Weight, gp.Weight)
		require.Len(t, gp.Rows, len(wp.Rows))
		for j, wr := range wp.Rows {
			gr := gp.Rows[j]
			assert.Same(t, gp, gr.Owner().(*Page), "row owner")
			assert.Equal(t, wr.Label, gr.Label)
			assert.Equal(t, wr.Count, gr.Count)
			assert.Equal(t, wr.Enabled, gr.Enabled)
			assert.Equal(t, wr.Big, gr.Big)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	in := sampleProject()
	buf := mg.Save(projectMap, in)

	out, c := mg.Load(projectMap, buf, nil)
	require.Equal(t, mg.SeverityNone, c.Severity(), c.Entries().Error())
	requireSameProject(t, in, out)
	assert.Nil(t, out.Owner())
	assert.NotEqual(t, in.ID(), out.ID())

	assert.Equal(t, string(buf), string(mg.Save(projectMap, out)))
}

func TestRoundTrip_Compact(t *testing.T) {
	in := sampleProject()
	buf := mg.SaveWith(projectMap, in, mg.SaveOpt{})
	assert.NotContains(t, string(buf), "\n")
	assert.Contains(t, string(buf), `"note":"keep <this> & that"`)

	out, c := mg.Load(projectMap, buf, nil)
	require.Equal(t, mg.SeverityNone, c.Severity())
	requireSameProject(t, in, out)
}

func TestSave_OmitsDefaults(t *testing.T) {
	p := projectMap.New(nil)
	p.Name = "x"
	buf := string(mg.SaveWith(projectMap, p, mg.SaveOpt{}))
	assert.Equal(t, `{"name":"x","status":"draft","tags":null,"note":null,"settings":null,"pages":null}`, buf)

	out, c := mg.Load(projectMap, []byte(buf), nil)
	require.Equal(t, mg.SeverityNone, c.Severity())
	assert.Equal(t, 1, out.Version)
}

func TestNullVersusEmpty(t *testing.T) {
	p := projectMap.New(nil)
	p.Tags = []string{}
	p.Settings = map[string]float64{}
	out, c := mg.Load(projectMap, mg.Save(projectMap, p), nil)
	require.Equal(t, mg.SeverityNone, c.Severity())
	require.NotNil(t, out.Tags)
	assert.Empty(t, out.Tags)
	require.NotNil(t, out.Settings)
	assert.Empty(t, out.Settings)

	p.Tags, p.Settings = nil, nil
	out, c = mg.Load(projectMap, mg.Save(projectMap, p), nil)
	require.Equal(t, mg.SeverityNone, c.Severity())
	assert.Nil(t, out.Tags)
	assert.Nil(t, out.Settings)
}

func TestNullable_ExplicitNullVersusAbsent(t *testing.T) {
	out, c := mg.Load(projectMap, []byte(`{"note":"hello"}`), nil)
	require.Equal(t, mg.SeverityNone, c.Severity())
	require.NotNil(t, out.Note)
	assert.Equal(t, "hello", *out.Note)

	out, c = mg.Load(projectMap, []byte(`{"note":""}`), nil)
	require.Equal(t, mg.SeverityNone, c.Severity())
	require.NotNil(t, out.Note)
	assert.Equal(t, "", *out.Note)

	out, _ = mg.Load(projectMap, []byte(`{"note":null}`), nil)
	assert.Nil(t, out.Note)
}

func TestUnknownFieldTolerance(t *testing.T) {
	doc := `{"name":"n","version":4,"colour":{"deep":[1,2,{"x":null}]},"tags":["t"]}`
	out, c := mg.Load(projectMap, []byte(doc), nil)
	require.Equal(t, mg.SeverityNone, c.Severity())
	assert.Empty(t, c.Entries())
	assert.Equal(t, "n", out.Name)
	assert.Equal(t, 4, out.Version)
	assert.Equal(t, []string{"t"}, out.Tags)
}

func TestUnknownField_RecordedWhenConfigured(t *testing.T) {
	opt := mg.DefaultLoadOpt()
	opt.Strictness.OnUnknownKey = mg.SeverityWarning
	out, c := mg.LoadWith(projectMap, mg.JSONBytes([]byte(`{"name":"n","colour":1}`)), nil, opt)
	require.Equal(t, mg.SeverityWarning, c.Severity())
	assert.Equal(t, "n", out.Name)
	es := c.Entries()
	require.Len(t, es, 1)
	assert.Equal(t, mg.CodeUnknownKey, es[0].Code)
	assert.Equal(t, "/colour", es[0].Path)
	assert.Equal(t, "Project: unknown key 'colour'", es[0].Message)
}

func TestSingleBadFieldIsolation(t *testing.T) {
	doc := `{"name":"n","version":"three","tags":["a"],"status":"published"}`
	out, c := mg.Load(projectMap, []byte(doc), nil)
	require.Equal(t, mg.SeverityError, c.Severity())
	assert.Equal(t, 1, out.Version)
	assert.Equal(t, "n", out.Name)
	assert.Equal(t, []string{"a"}, out.Tags)
	assert.Equal(t, StatusPublished, out.Status)

	es := c.Entries()
	require.Len(t, es, 1)
	assert.Equal(t, mg.CodeFieldDecode, es[0].Code)
	assert.Equal(t, "/version", es[0].Path)
	assert.Contains(t, es[0].Message, "version")

	var fde *mg.FieldDecodeError
	require.True(t, errors.As(es[0].Cause, &fde))
	assert.Equal(t, "version", fde.Field)
	var ve *mg.ValueError
	assert.True(t, errors.As(es[0].Cause, &ve))
}

func TestContainerFormatErrorIsolation(t *testing.T) {
	doc := `{"tags":{"a":1},"name":"kept","settings":[1,2]}`
	out, c := mg.Load(projectMap, []byte(doc), nil)
	require.Equal(t, mg.SeverityError, c.Severity())
	assert.Nil(t, out.Tags)
	assert.Nil(t, out.Settings)
	assert.Equal(t, "kept", out.Name)

	es := c.Entries()
	require.Len(t, es, 2)
	for _, e := range es {
		assert.Equal(t, mg.CodeFormatError, e.Code)
		var fe *mg.FormatError
		assert.True(t, errors.As(e.Cause, &fe))
	}
	assert.Equal(t, "/tags", es[0].Path)
	assert.Equal(t, "/settings", es[1].Path)
}

func TestNestedFieldErrorStaysInNestedObject(t *testing.T) {
	doc := `{"name":"p","pages":[{"title":"a","rows":[{"label":"r0"},{"label":"r1","count":"many"}]}]}`
	out, c := mg.Load(projectMap, []byte(doc), nil)
	require.Equal(t, mg.SeverityError, c.Severity())
	require.Len(t, out.Pages, 1)
	require.Len(t, out.Pages[0].Rows, 2)
	assert.Equal(t, "r1", out.Pages[0].Rows[1].Label)
	assert.Zero(t, out.Pages[0].Rows[1].Count)

	es := c.Entries()
	require.Len(t, es, 1)
	assert.Equal(t, "/pages/0/rows/1/count", es[0].Path)
}

func TestRejectedListDropsItsHooks(t *testing.T) {
	doc := `{"name":"p","pages":[{"title":"a","rows":[{"label":"r0"},7]}]}`
	out, c := mg.Load(projectMap, []byte(doc), nil)
	require.Equal(t, mg.SeverityError, c.Severity())
	require.Len(t, out.Pages, 1)
	assert.Nil(t, out.Pages[0].Rows)
	assert.Equal(t, []string{"page:a", "project:p"}, out.log)
	assert.Equal(t, "/pages/0/rows", c.Entries()[0].Path)
}

func TestIntegerRange(t *testing.T) {
	doc := `{"pages":[{"rows":[{"label":"x","count":4294967296,"big":9007199254740993}]}]}`
	out, c := mg.Load(projectMap, []byte(doc), nil)
	require.Equal(t, mg.SeverityError, c.Severity())
	row := out.Pages[0].Rows[0]
	assert.Zero(t, row.Count)
	assert.Equal(t, int64(9007199254740993), row.Big)

	_, c = mg.Load(projectMap, []byte(`{"version":1.5}`), nil)
	assert.Equal(t, mg.SeverityError, c.Severity())
}

func TestFloatFidelity(t *testing.T) {
	p := projectMap.New(nil)
	p.Settings = map[string]float64{
		"third": 1.0 / 3.0,
		"tiny":  5e-324,
		"nan":   math.NaN(),
		"inf":   math.Inf(1),
		"ninf":  math.Inf(-1),
	}
	out, c := mg.Load(projectMap, mg.Save(projectMap, p), nil)
	require.Equal(t, mg.SeverityNone, c.Severity())
	assert.Equal(t, 1.0/3.0, out.Settings["third"])
	assert.Equal(t, 5e-324, out.Settings["tiny"])
	assert.True(t, math.IsNaN(out.Settings["nan"]))
	assert.True(t, math.IsInf(out.Settings["inf"], 1))
	assert.True(t, math.IsInf(out.Settings["ninf"], -1))
}

func TestEnum_UnknownName(t *testing.T) {
	out, c := mg.Load(projectMap, []byte(`{"status":"archived","name":"n"}`), nil)
	require.Equal(t, mg.SeverityError, c.Severity())
	assert.Equal(t, StatusDraft, out.Status)
	assert.Equal(t, "n", out.Name)
}

func TestAny_RoundTrip(t *testing.T) {
	doc := `{"extra":{"b":[1,"two",true,null,{"c":1.50}],"a":12345678901234567890}}`
	out, c := mg.Load(projectMap, []byte(doc), nil)
	require.Equal(t, mg.SeverityNone, c.Severity())
	require.NotNil(t, out.Extra)

	buf := string(mg.SaveWith(projectMap, out, mg.SaveOpt{}))
	assert.Contains(t, buf, `"extra":{"a":12345678901234567890,"b":[1,"two",true,null,{"c":1.50}]}`)
}

func TestDeferredNotificationOrdering(t *testing.T) {
	in := sampleProject()
	out, c := mg.Load(projectMap, mg.Save(projectMap, in), nil)
	require.Equal(t, mg.SeverityNone, c.Severity())

	assert.Equal(t, []string{
		"row:intro/r0", "row:intro/r1", "page:intro",
		"row:body/r0", "row:body/r1", "page:body",
		"project:atlas",
	}, out.log)

	for _, page := range out.Pages {
		assert.Equal(t, 2, page.sawRows)
		for _, row := range page.Rows {
			assert.Equal(t, page.Title, row.sawTitle)
		}
	}
}

func TestHooksNotRunOnUnusableLoad(t *testing.T) {
	out, c := mg.Load(projectMap, []byte(`{"name":"p","pages":[{"title":"a"`), nil)
	assert.Nil(t, out)
	assert.Equal(t, mg.SeverityCritical, c.Severity())
	assert.Equal(t, mg.CodeParseError, c.Entries()[0].Code)
}

func TestRootStructuralErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		sev  mg.Severity
		code string
	}{
		{"null", `null`, mg.SeverityError, mg.CodeNullRoot},
		{"array", `[1,2]`, mg.SeverityCritical, mg.CodeFormatError},
		{"string", `"p"`, mg.SeverityCritical, mg.CodeFormatError},
		{"empty", ``, mg.SeverityCritical, mg.CodeParseError},
		{"garbage", `{"name":}`, mg.SeverityCritical, mg.CodeParseError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, c := mg.Load(projectMap, []byte(tc.doc), nil)
			assert.Nil(t, out)
			require.Equal(t, tc.sev, c.Severity())
			assert.Equal(t, tc.code, c.Entries()[0].Code)
		})
	}
}

func TestDuplicateKeys(t *testing.T) {
	doc := []byte(`{"name":"first","name":"second"}`)
	out, c := mg.Load(projectMap, doc, nil)
	require.Equal(t, mg.SeverityWarning, c.Severity())
	assert.Equal(t, "second", out.Name)
	assert.Equal(t, mg.CodeDuplicateKey, c.Entries()[0].Code)
	assert.Equal(t, "/name", c.Entries()[0].Path)

	opt := mg.LoadOpt{Strictness: mg.Strictness{OnDuplicateKey: mg.SeverityCritical}}
	out, c = mg.LoadWith(projectMap, mg.JSONBytes(doc), nil, opt)
	assert.Nil(t, out)
	assert.Equal(t, mg.SeverityCritical, c.Severity())

	out, c = mg.LoadWith(projectMap, mg.JSONBytes(doc), nil, mg.LoadOpt{})
	assert.Equal(t, mg.SeverityNone, c.Severity())
	assert.Equal(t, "second", out.Name)
}

func TestLimits(t *testing.T) {
	doc := []byte(`{"pages":[{"rows":[{"label":"deep"}]}]}`)

	out, c := mg.LoadWith(projectMap, mg.JSONBytes(doc), nil, mg.LoadOpt{MaxDepth: 3})
	assert.Nil(t, out)
	require.Equal(t, mg.SeverityCritical, c.Severity())
	assert.Equal(t, mg.CodeParseError, c.Entries()[0].Code)

	out, c = mg.LoadWith(projectMap, mg.JSONBytes(doc), nil, mg.LoadOpt{MaxDepth: 5})
	require.Equal(t, mg.SeverityNone, c.Severity())
	assert.Equal(t, "deep", out.Pages[0].Rows[0].Label)

	out, c = mg.LoadWith(projectMap, mg.JSONBytes(doc), nil, mg.LoadOpt{MaxBytes: 10})
	assert.Nil(t, out)
	assert.Equal(t, mg.CodeTruncated, c.Entries()[0].Code)
}

func TestLoadYAML(t *testing.T) {
	doc := `
name: atlas
version: 2
status: published
tags: [a, b]
note: ~
settings:
  ratio: 0.5
  inf: .inf
pages:
  - title: intro
    rows:
      - label: r0
        count: 7
        enabled: false
`
	out, c := mg.LoadWith(projectMap, mg.YAMLBytes([]byte(doc)), nil, mg.DefaultLoadOpt())
	require.Equal(t, mg.SeverityNone, c.Severity(), c.Entries().Error())
	assert.Equal(t, "atlas", out.Name)
	assert.Equal(t, 2, out.Version)
	assert.Equal(t, StatusPublished, out.Status)
	assert.Equal(t, []string{"a", "b"}, out.Tags)
	assert.Nil(t, out.Note)
	assert.Equal(t, 0.5, out.Settings["ratio"])
	assert.True(t, math.IsInf(out.Settings["inf"], 1))
	require.Len(t, out.Pages, 1)
	row := out.Pages[0].Rows[0]
	assert.Equal(t, int32(7), row.Count)
	assert.False(t, row.Enabled)
	assert.Same(t, out.Pages[0], row.Owner())
	assert.Equal(t, []string{"row:intro/r0", "page:intro", "project:atlas"}, out.log)
}

func TestLoadYAML_TrailingDocument(t *testing.T) {
	out, c := mg.LoadWith(projectMap, mg.YAMLBytes([]byte("name: one\n---\nname: two\n")), nil, mg.LoadOpt{})
	require.Equal(t, mg.SeverityWarning, c.Severity())
	assert.Equal(t, "one", out.Name)
	assert.Equal(t, mg.CodeTrailingData, c.Entries()[0].Code)
}

func TestLoadOrDefault(t *testing.T) {
	def := projectMap.New(nil)
	def.Name = "fallback"

	got := mg.LoadOrDefault(projectMap, []byte(`{"name":"ok"}`), nil, def, mg.SeverityWarning)
	assert.Equal(t, "ok", got.Name)

	got = mg.LoadOrDefault(projectMap, []byte(`{"name":"ok","name":"dup"}`), nil, def, mg.SeverityWarning)
	assert.Same(t, def, got)

	got = mg.LoadOrDefault(projectMap, []byte(`{"name":"ok","name":"dup"}`), nil, def, mg.SeverityError)
	assert.Equal(t, "dup", got.Name)
}

func TestLoadInto_SharedCollector(t *testing.T) {
	c := mg.NewErrorCollector()
	c.Record(mg.SeverityWarning, "before load")
	out := mg.LoadInto(projectMap, mg.JSONBytes([]byte(`{"version":"x"}`)), nil, c, mg.LoadOpt{})
	require.NotNil(t, out)
	assert.Equal(t, mg.SeverityError, c.Severity())
	assert.Len(t, c.Entries(), 2)
}

func TestCopyIndependence(t *testing.T) {
	orig := sampleProject()
	ws := newWorkspace()

	cp, err := mg.Copy(projectMap, orig, ws)
	require.NoError(t, err)
	requireSameProject(t, orig, cp)
	assert.Same(t, ws, cp.Owner())
	assert.Same(t, ws, mg.Root(cp.Pages[1].Rows[0]))
	assert.True(t, mg.IsOwnedBy(cp.Pages[0].Rows[1], ws))
	assert.False(t, mg.IsOwnedBy(cp.Pages[0].Rows[1], orig))
	assert.Len(t, cp.log, 7)

	cp.Name = "changed"
	cp.Tags[0] = "z"
	*cp.Note = "other"
	cp.Settings["ratio"] = 9
	cp.Pages[0].Rows[0].Label = "moved"
	cp.Pages = cp.Pages[:1]

	assert.Equal(t, "atlas", orig.Name)
	assert.Equal(t, "a", orig.Tags[0])
	assert.Equal(t, "keep <this> & that", *orig.Note)
	assert.Equal(t, 0.1, orig.Settings["ratio"])
	assert.Equal(t, "r0", orig.Pages[0].Rows[0].Label)
	assert.Len(t, orig.Pages, 2)
	assert.Nil(t, orig.Owner())
}

func TestCopy_SubtreeRebased(t *testing.T) {
	orig := sampleProject()
	target := sampleProject()
	page, err := mg.Copy(pageMap, orig.Pages[0], target)
	require.NoError(t, err)
	assert.Same(t, target, page.Owner())
	assert.Same(t, page, page.Rows[0].Owner())
	// Hooks of the copied page report to the new owning project.
	assert.Equal(t, []string{"row:intro/r0", "row:intro/r1", "page:intro"}, target.log)
}

func TestCopy_NilFailsRoundTrip(t *testing.T) {
	_, err := mg.Copy(projectMap, (*Project)(nil), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, mg.ErrRoundTrip)
	assert.Panics(t, func() { mg.MustCopy(projectMap, (*Project)(nil), nil) })
}

func TestLoadValue_ListOfRoots(t *testing.T) {
	vm := mg.List[*Project](projectMap)
	a, b := sampleProject(), sampleProject()
	b.Name = "beacon"
	buf := mg.SaveValue(vm, []*Project{a, b}, mg.SaveOpt{})

	out, c := mg.LoadValue(vm, mg.JSONBytes(buf), mg.LoadOpt{})
	require.Equal(t, mg.SeverityNone, c.Severity())
	require.Len(t, out, 2)
	requireSameProject(t, a, out[0])
	requireSameProject(t, b, out[1])
	assert.Len(t, out[1].log, 7)
	assert.Nil(t, out[0].Owner())

	_, c = mg.LoadValue(vm, mg.JSONBytes([]byte(`null`)), mg.LoadOpt{})
	assert.Equal(t, mg.SeverityError, c.Severity())
	assert.Equal(t, "value: document is null", c.Entries()[0].Message)
}

func TestLoadValue_Any(t *testing.T) {
	v, c := mg.LoadValue(mg.Any(), mg.YAMLBytes([]byte("a: [1, x]\nb: null\n")), mg.LoadOpt{})
	require.Equal(t, mg.SeverityNone, c.Severity())
	assert.Equal(t, `{"a":[1,"x"],"b":null}`, string(mg.SaveValue(mg.Any(), v, mg.SaveOpt{})))
}

func TestLoadJSON_TrailingValue(t *testing.T) {
	out, c := mg.Load(projectMap, []byte(`{"name":"x"} {"name":"y"}`), nil)
	require.NotNil(t, out)
	assert.Equal(t, "x", out.Name)
	require.Equal(t, mg.SeverityWarning, c.Severity())
	assert.Equal(t, mg.CodeTrailingData, c.Entries()[0].Code)
	assert.Equal(t, []string{"project:x"}, out.log)

	out, c = mg.Load(projectMap, []byte(`{"name":"x"} garbage`), nil)
	require.NotNil(t, out)
	assert.Equal(t, mg.SeverityWarning, c.Severity())

	out, c = mg.Load(projectMap, []byte(`{"name":"x",} {"name":"y"}`), nil)
	assert.Nil(t, out)
	assert.Equal(t, mg.CodeParseError, c.Entries()[0].Code)
}

func TestDuplicateKeys_ReplacedValueHooksCancelled(t *testing.T) {
	doc := `{"name":"p","pages":[{"title":"a","rows":[{"label":"r"}]}],"note":"n","pages":[{"title":"b"}]}`
	out, c := mg.Load(projectMap, []byte(doc), nil)
	require.Equal(t, mg.SeverityWarning, c.Severity())
	require.Len(t, out.Pages, 1)
	assert.Equal(t, "b", out.Pages[0].Title)
	assert.Equal(t, []string{"page:b", "project:p"}, out.log)

	// A null repeat leaves the first value, and its hooks, in place.
	out, _ = mg.Load(projectMap, []byte(`{"name":"p","pages":[{"title":"a"}],"pages":null}`), nil)
	require.Len(t, out.Pages, 1)
	assert.Equal(t, []string{"page:a", "project:p"}, out.log)
}

func TestEntryMessagesAreLocalized(t *testing.T) {
	i18n.SetLanguage("ja")
	defer i18n.SetLanguage("en")

	_, c := mg.Load(projectMap, []byte(`{"version":"three","tags":{},"name":"a","name":"b"}`), nil)
	es := c.Entries()
	require.Len(t, es, 3)
	assert.Equal(t, "キー 'name' が重複しています", es[2].Message)
	assert.True(t, strings.HasPrefix(es[0].Message, "Project: フィールド 'version' の値を復元できません: "), es[0].Message)
	assert.True(t, strings.HasPrefix(es[1].Message, "Project: フィールド 'tags' の文書構造が不正です: "), es[1].Message)
}

func TestLoad_LogsIgnoredAndAbortedInput(t *testing.T) {
	var buf bytes.Buffer
	defer log.SetOutput(log.StandardLogger().Out)
	defer log.SetLevel(log.GetLevel())
	log.SetOutput(&buf)
	log.SetLevel(log.WarnLevel)

	mg.Load(projectMap, []byte(`{"name":"x"} {}`), nil)
	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "data after the root value ignored")

	buf.Reset()
	mg.Load(projectMap, []byte(`[1]`), nil)
	assert.Contains(t, buf.String(), "level=error")
	assert.Contains(t, buf.String(), "load aborted")
}
