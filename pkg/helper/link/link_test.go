package link

import (
	"net/url"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"yqhp/aspect/pkg/controller"
)

func TestA(t *testing.T) {
	assert.Equal(t, `<a href="/">title</a>`, A("title", Href("/")))
	assert.Equal(t, `<a href="/foo">title</a>`, A("title", Href("/foo")))
	assert.Equal(t, `<a href="/foo?x=y">title</a>`, A("title", Href("/foo?x=y")))
	assert.Equal(t, `<a href="/foo?x=y">/foo?x=y</a>`, A("/foo?x=y"))

	a := A("title", Href("/foo"), Class("none"))
	assert.Regexp(t, `class="none"`, a)
	assert.Regexp(t, `href="/foo"`, a)
	assert.Equal(t, `<a href="/foo" class="none">title</a>`, a)
}

func TestAEscapes(t *testing.T) {
	assert.Equal(t,
		`<a href="/q?a=1&amp;b=2" title="&#34;x&#34;">&lt;b&gt;</a>`,
		A("<b>", Href("/q?a=1&b=2"), Title(`"x"`)))
	assert.Equal(t, `<a href="/x" data-id="7">x</a>`, A("x", Attribute("data-id", "7"), Href("/x")))
}

func TestADropsInvalidAttributeNames(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"quote", `x" onclick="alert(1)`},
		{"space", "data id"},
		{"angle", "a>b"},
		{"empty", ""},
		{"leading digit", "1x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, `<a href="/x" class="c">x</a>`,
				A("x", Href("/x"), Attribute(tt.key, "v"), Class("c")))
		})
	}

	assert.Equal(t, `<a href="/x" xml:lang="en" data-a.b_c="1">x</a>`,
		A("x", Href("/x"), Attribute("xml:lang", "en"), Attribute("data-a.b_c", "1")))
}

func TestR(t *testing.T) {
	root := controller.NewType("tclink", "/")
	assert.Equal(t, "/", R(root))
	assert.Equal(t, "/foo", R(root, "foo"))
	assert.Equal(t, "/foo/bar", R(root, "foo", "bar"))
	assert.Equal(t, "/foo?bar=baz", R(root, "foo", map[string]string{"bar": "baz"}))

	users := controller.NewType("users", "/users")
	assert.Equal(t, "/users", R(users))
	assert.Equal(t, "/users/show/42", R(users, "show", 42))
	assert.Equal(t, "/users/search?a=1&q=go+lang",
		R(users, "search", url.Values{"q": {"go lang"}, "a": {"1"}}))
	assert.Equal(t, "/users/a%20b", R(users, "a b"))
}

func TestBreadcrumbs(t *testing.T) {
	want := strings.Join([]string{
		`<a href="/file">file</a>`,
		`<a href="/file/dir">dir</a>`,
		`<a href="/file/dir/listing">listing</a>`,
		`<a href="/file/dir/listing/is">is</a>`,
		`<a href="/file/dir/listing/is/cool">cool</a>`,
	}, "/")
	assert.Equal(t, want, Breadcrumbs("/file/dir/listing/is/cool"))
}

func TestBreadcrumbsWithHrefPrefix(t *testing.T) {
	want := strings.Join([]string{
		`<a href="/prefix/path/file">file</a>`,
		`<a href="/prefix/path/file/dir">dir</a>`,
		`<a href="/prefix/path/file/dir/listing">listing</a>`,
		`<a href="/prefix/path/file/dir/listing/is">is</a>`,
		`<a href="/prefix/path/file/dir/listing/is/cool">cool</a>`,
	}, "/")
	got := Breadcrumbs("/file/dir/listing/is/cool", WithSplit("/"), WithJoin("/"), WithHrefPrefix("/prefix/path"))
	assert.Equal(t, want, got)
}

func TestBreadcrumbsCustomSeparators(t *testing.T) {
	assert.Equal(t,
		`<a href="/a">a</a> &gt; <a href="/a/b">b</a>`,
		Breadcrumbs("a.b", WithSplit("."), WithJoin(" &gt; ")))
	assert.Equal(t, "", Breadcrumbs("///"))
}

func TestBreadcrumbsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("one crumb per atom, last points at the whole path", prop.ForAll(
		func(atoms []string) bool {
			out := Breadcrumbs("/" + strings.Join(atoms, "/"))
			if len(atoms) == 0 {
				return out == ""
			}
			if strings.Count(out, "<a ") != len(atoms) {
				return false
			}
			last := A(atoms[len(atoms)-1], Href("/"+strings.Join(atoms, "/")))
			return strings.HasSuffix(out, last)
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}
