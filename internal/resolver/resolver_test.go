package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cssinline/internal/config"
	"cssinline/internal/css"
	"cssinline/internal/html"
)

// resolve runs the whole cascade over doc using the given stylesheet text
func resolve(t *testing.T, cfg config.Config, stylesheet, doc string) (string, Stats) {
	t.Helper()
	sheet := css.NewParser(nil).Parse(stylesheet)
	tokens := html.Tokenize(doc)
	stats := New(sheet, cfg, zaptest.NewLogger(t)).Apply(tokens)
	return tokens.String(), stats
}

func TestApply_Cascade(t *testing.T) {
	tests := []struct {
		name string
		css  string
		doc  string
		want string
	}{
		{
			name: "class rule appended as style attribute",
			css:  ".red{color:red}",
			doc:  `<p class="red">hi</p>`,
			want: `<p class="red" style="color:red">hi</p>`,
		},
		{
			name: "inline style wins over stylesheet",
			css:  ".red{color:red}",
			doc:  `<p class="red" style="color:blue">hi</p>`,
			want: `<p class="red" style="color:blue">hi</p>`,
		},
		{
			name: "id outranks class regardless of order",
			css:  "#x{color:green}.a{color:red}p.a{color:blue}",
			doc:  `<p id="x" class="a">hi</p>`,
			want: `<p id="x" class="a" style="color:green">hi</p>`,
		},
		{
			name: "important outranks specificity",
			css:  "#x{color:green}p{color:red!important}",
			doc:  `<p id="x">hi</p>`,
			want: `<p id="x" style="color:red!important">hi</p>`,
		},
		{
			name: "important stylesheet rule outranks plain inline style",
			css:  "p{color:red!important}",
			doc:  `<p style="color:blue">hi</p>`,
			want: `<p style="color:red!important">hi</p>`,
		},
		{
			name: "important inline style outranks important rule",
			css:  "#x{color:red!important}",
			doc:  `<p id="x" style="color:blue !important">hi</p>`,
			want: `<p id="x" style="color:blue!important">hi</p>`,
		},
		{
			name: "later rule wins on equal specificity",
			css:  ".a{color:red}.b{color:blue}",
			doc:  `<p class="b a">hi</p>`,
			want: `<p class="b a" style="color:blue">hi</p>`,
		},
		{
			name: "properties keep order of first appearance",
			css:  "p{margin:0;color:red}.a{padding:1px;margin:2px}",
			doc:  `<p class="a" style="border:0">hi</p>`,
			want: `<p class="a" style="margin:2px;color:red;padding:1px;border:0">hi</p>`,
		},
		{
			name: "existing style attribute is normalized",
			css:  "p{color:red}",
			doc:  `<p STYLE = 'font-family: "Arial"; margin: 0px;' class="x">hi</p>`,
			want: `<p style="color:red;font-family:'Arial';margin:0" class="x">hi</p>`,
		},
		{
			name: "self-closing tag",
			css:  "img{border:0}",
			doc:  `<img src="a.png" /><br/>`,
			want: `<img src="a.png" style="border:0" /><br/>`,
		},
		{
			name: "unmatched elements keep their text",
			css:  ".red{color:red}",
			doc:  `<DIV  class = "x" style="color : blue">x</DIV>`,
			want: `<DIV  class = "x" style="color : blue">x</DIV>`,
		},
		{
			name: "chain longer than depth never matches",
			css:  "div p{color:red}",
			doc:  `<p>top</p><div><p>nested</p></div>`,
			want: `<p>top</p><div><p style="color:red">nested</p></div>`,
		},
		{
			name: "structural pseudo-classes",
			css:  "li:first-child{color:red}li:nth-child(even){color:blue}",
			doc:  `<ul><li>1</li><li>2</li><li>3</li></ul>`,
			want: `<ul><li style="color:red">1</li><li style="color:blue">2</li><li>3</li></ul>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := resolve(t, config.Default(), tt.css, tt.doc)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	stylesheet := "p{margin:0;color:red}.a{padding:1px}#x{color:green!important}td{font-size:12px}"
	doc := `<table><tr><td><p id="x" class="a" style="border:1px solid #000000">a</p><p class="a">b</p></td></tr></table>`

	once, _ := resolve(t, config.Default(), stylesheet, doc)
	twice, _ := resolve(t, config.Default(), stylesheet, once)
	assert.Equal(t, once, twice)
}

func TestApply_Stats(t *testing.T) {
	_, stats := resolve(t, config.Default(), "p{color:red}.a{margin:0}span{color:blue}", `<div><p class="a">x</p><p>y</p></div>`)

	assert.Equal(t, 3, stats.ElementsProcessed)
	assert.Equal(t, 2, stats.ElementsStyled)
	assert.Equal(t, 3, stats.SelectorsMatched)
	assert.Equal(t, 3, stats.InlinedStyles)
}

func TestApply_SkipTags(t *testing.T) {
	cfg := config.Default()
	cfg.SkipTags = []string{"TD"}

	got, stats := resolve(t, cfg, "td{color:red}p{color:blue}", `<table><tr><td><p>x</p></td></tr></table>`)

	assert.Equal(t, `<table><tr><td><p style="color:blue">x</p></td></tr></table>`, got)
	assert.Equal(t, 3, stats.ElementsProcessed)
}

func TestApply_EmailClientOptimizations(t *testing.T) {
	stylesheet := "p{color:red;float:left;position:absolute;display:flex}div{display:block}"
	doc := `<div><p>x</p></div>`

	t.Run("disabled", func(t *testing.T) {
		got, _ := resolve(t, config.Default(), stylesheet, doc)
		assert.Equal(t, `<div style="display:block"><p style="color:red;float:left;position:absolute;display:flex">x</p></div>`, got)
	})

	t.Run("outlook", func(t *testing.T) {
		cfg := config.Default()
		cfg.EmailClientOptimizations = true
		cfg.TargetEmailClient = "outlook"

		got, _ := resolve(t, cfg, stylesheet, doc)
		assert.Equal(t, `<div style="display:block"><p style="color:red">x</p></div>`, got)
	})

	t.Run("gmail", func(t *testing.T) {
		cfg := config.Default()
		cfg.EmailClientOptimizations = true
		cfg.TargetEmailClient = "gmail"

		got, _ := resolve(t, cfg, stylesheet, doc)
		assert.Equal(t, `<div style="display:block"><p style="color:red;float:left;position:absolute">x</p></div>`, got)
	})
}

func TestApply_EverythingFilteredKeepsTag(t *testing.T) {
	cfg := config.Default()
	cfg.EmailClientOptimizations = true
	cfg.TargetEmailClient = "outlook"

	got, stats := resolve(t, cfg, "p{float:left}", `<div><p style="float:right">x</p><p>y</p></div>`)

	assert.Equal(t, `<div><p style="float:right">x</p><p>y</p></div>`, got)
	assert.Zero(t, stats.ElementsStyled)
	assert.Equal(t, 2, stats.SelectorsMatched)
}

func TestValidateStyles(t *testing.T) {
	cfg := config.Default()
	cfg.TargetEmailClient = "outlook"
	r := New(&css.Stylesheet{}, cfg, nil)

	warnings := r.ValidateStyles([]css.Declaration{
		{Property: "color", Value: "red"},
		{Property: "width", Value: "100vw"},
		{Property: "background-image", Value: "url('a.png')"},
		{Property: "position", Value: "relative"},
	})

	require.Len(t, warnings, 4)
	assert.Equal(t, ValidationWarning{Property: "width", Value: "100vw", Message: "Viewport units not supported in email clients", Severity: "error"}, warnings[0])
	assert.Equal(t, "background-image", warnings[1].Property)
	assert.Equal(t, "warning", warnings[1].Severity)
	assert.Equal(t, "position", warnings[2].Property)
	assert.Equal(t, "warning", warnings[2].Severity)
	assert.Equal(t, "position", warnings[3].Property)
	assert.Equal(t, "info", warnings[3].Severity)
	assert.Equal(t, "info: position:relative - Property may not be supported across all email clients", warnings[3].String())
}

func TestSetStyle(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{`<p>`, `<p style="a:b">`},
		{`<p class="x">`, `<p class="x" style="a:b">`},
		{`<br/>`, `<br style="a:b"/>`},
		{`<br />`, `<br style="a:b" />`},
		{`<p style="color:red" class="x">`, `<p style="a:b" class="x">`},
		{`<p STYLE='x'>`, `<p style="a:b">`},
		{`<p data-style="keep" style=x>`, `<p data-style="keep" style="a:b">`},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, SetStyle(tt.tag, "a:b"))
		})
	}
}

func TestInlineStyle(t *testing.T) {
	assert.Equal(t, []css.Declaration{
		{Property: "color", Value: "#abc"},
		{Property: "font-family", Value: "'Open Sans'"},
	}, InlineStyle(`<p style="color: #aabbcc; font-family: &quot;Open Sans&quot;;">`))

	assert.Nil(t, InlineStyle(`<p class="x">`))
}

func TestStylesString(t *testing.T) {
	assert.Equal(t, "color:red;margin:0", StylesString([]css.Declaration{
		{Property: "color", Value: "red"},
		{Property: "margin", Value: "0"},
	}))
	assert.Equal(t, "", StylesString(nil))
}
