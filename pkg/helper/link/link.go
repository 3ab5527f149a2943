// Package link builds anchors, controller URLs and breadcrumb trails.
package link

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/duke-git/lancet/v2/strutil"
)

// Mapper is anything mounted under a URL prefix, such as a controller type.
type Mapper interface {
	Mapping() string
}

// Attr is one HTML attribute of an anchor.
type Attr struct {
	Key   string
	Value string
}

// Href sets the link target.
func Href(v string) Attr { return Attr{Key: "href", Value: v} }

// Class sets the class attribute.
func Class(v string) Attr { return Attr{Key: "class", Value: v} }

// Title sets the title attribute.
func Title(v string) Attr { return Attr{Key: "title", Value: v} }

// Attribute builds an arbitrary attribute.
func Attribute(key, value string) Attr { return Attr{Key: key, Value: value} }

// attrName matches the attribute names A is willing to write.
var attrName = regexp.MustCompile(`^[A-Za-z_:][-A-Za-z0-9_:.]*$`)

// A renders an anchor. Without an href attribute the text is used as the
// target. href is written first, the rest in the order given. Attributes
// whose key is not a valid attribute name are dropped.
func A(text string, attrs ...Attr) string {
	href := text
	rest := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "href" {
			href = a.Value
			continue
		}
		rest = append(rest, a)
	}

	var b strings.Builder
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(href))
	b.WriteByte('"')
	for _, a := range rest {
		if !attrName.MatchString(a.Key) {
			continue
		}
		fmt.Fprintf(&b, ` %s="%s"`, a.Key, html.EscapeString(a.Value))
	}
	b.WriteByte('>')
	b.WriteString(html.EscapeString(text))
	b.WriteString("</a>")
	return b.String()
}

// R builds the URL of m. String (or fmt.Stringer) arguments become path
// segments; map[string]string and url.Values arguments become the query,
// encoded with sorted keys.
func R(m Mapper, args ...any) string {
	segments := []string{strings.TrimRight(m.Mapping(), "/")}
	query := url.Values{}

	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			segments = append(segments, url.PathEscape(v))
		case fmt.Stringer:
			segments = append(segments, url.PathEscape(v.String()))
		case map[string]string:
			for k, val := range v {
				query.Add(k, val)
			}
		case url.Values:
			for k, vals := range v {
				for _, val := range vals {
					query.Add(k, val)
				}
			}
		default:
			segments = append(segments, url.PathEscape(fmt.Sprint(v)))
		}
	}

	p := strings.Join(segments, "/")
	if p == "" {
		p = "/"
	}
	if len(query) == 0 {
		return p
	}
	return p + "?" + query.Encode()
}

type breadcrumbOptions struct {
	split  string
	join   string
	prefix string
}

// BreadcrumbOption configures Breadcrumbs.
type BreadcrumbOption func(*breadcrumbOptions)

// WithSplit sets the separator the path is split on. Default "/".
func WithSplit(sep string) BreadcrumbOption {
	return func(o *breadcrumbOptions) { o.split = sep }
}

// WithJoin sets the separator placed between crumbs. Default "/".
func WithJoin(sep string) BreadcrumbOption {
	return func(o *breadcrumbOptions) { o.join = sep }
}

// WithHrefPrefix prepends prefix to every crumb's href.
func WithHrefPrefix(prefix string) BreadcrumbOption {
	return func(o *breadcrumbOptions) { o.prefix = prefix }
}

// Breadcrumbs renders one anchor per path element, each pointing at the
// path up to and including that element.
func Breadcrumbs(path string, opts ...BreadcrumbOption) string {
	o := &breadcrumbOptions{split: "/", join: "/"}
	for _, opt := range opts {
		opt(o)
	}
	if o.split == "" {
		o.split = "/"
	}

	atoms := slice.Filter(strings.Split(path, o.split), func(_ int, s string) bool {
		return !strutil.IsBlank(s)
	})
	prefix := strings.TrimRight(o.prefix, "/")

	crumbs := make([]string, 0, len(atoms))
	for i, atom := range atoms {
		href := prefix + "/" + strings.Join(atoms[:i+1], "/")
		crumbs = append(crumbs, A(atom, Href(href)))
	}
	return strings.Join(crumbs, o.join)
}
