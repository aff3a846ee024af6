package frontend

import (
	"context"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// Route type labels.
const (
	RouteNextFile = "Next.js file-based"
	RouteReact    = "React Router"
	RouteVue      = "Vue Router"
	RouteAngular  = "Angular Router"
)

const (
	maxRoutes       = 80
	maxTableRoutes  = 50
	maxRouterFiles  = 100
	routerReadLimit = 8000
)

var (
	nextRouteDirs = []string{"pages", "src/pages", "app", "src/app"}
	nextRouteExts = []string{".jsx", ".tsx", ".js", ".ts"}
)

// Routes collects file-based Next.js routes and routing-table literals,
// deduplicated on path with the first occurrence kept.
func Routes(ctx context.Context, pkg *detect.PackageJSON, files []string, read scanner.ReadFunc) []Route {
	out := []Route{}
	seen := make(map[string]bool)
	add := func(r Route) {
		if len(out) < maxRoutes && !seen[r.Path] {
			seen[r.Path] = true
			out = append(out, r)
		}
	}

	if pkg.HasDep("next") {
		for _, r := range nextRoutes(files) {
			add(r)
		}
	}

	scanned := 0
	for _, f := range srcFirst(files) {
		if scanned >= maxRouterFiles || ctx.Err() != nil {
			break
		}
		if !scanner.HasExt(f, nextRouteExts...) {
			continue
		}
		scanned++
		text := read(f, routerReadLimit)
		kind := routerKind(text)
		if kind == "" || len(out) >= maxTableRoutes {
			continue
		}
		for _, tr := range tableRoutes(text) {
			add(Route{Type: kind, Path: tr.path, File: f, Component: tr.component, Params: pathParams(tr.path)})
		}
	}
	return out
}

// nextRoutes maps pages/ and app/ files to URL paths. In app/ only page
// files are routes; route groups and parallel slots do not add segments.
func nextRoutes(files []string) []Route {
	var out []Route
	for _, dir := range nextRouteDirs {
		isApp := path.Base(dir) == "app"
		for _, f := range underPrefix(files, dir) {
			if !scanner.HasExt(f, nextRouteExts...) {
				continue
			}
			segs := strings.Split(strings.TrimPrefix(f, dir+"/"), "/")
			base := strings.TrimSuffix(segs[len(segs)-1], path.Ext(f))
			dirs := segs[:len(segs)-1]
			if isApp && base != "page" {
				continue
			}
			if !isApp && strings.HasPrefix(base, "_") {
				continue
			}

			var parts []string
			skip := false
			for _, d := range dirs {
				switch {
				case d == "api", strings.HasPrefix(d, "_"):
					skip = true
				case isApp && (strings.HasPrefix(d, "(") || strings.HasPrefix(d, "@")):
				default:
					parts = append(parts, nextSegment(d))
				}
			}
			if skip {
				continue
			}
			if base != "index" && base != "page" {
				parts = append(parts, nextSegment(base))
			}
			p := "/" + strings.Join(parts, "/")
			out = append(out, Route{Type: RouteNextFile, Path: p, File: f, Params: pathParams(p)})
		}
	}
	return out
}

// nextSegment converts [id] to :id and [...slug] or [[...slug]] to *slug.
func nextSegment(seg string) string {
	if !strings.HasPrefix(seg, "[") || !strings.HasSuffix(seg, "]") {
		return seg
	}
	inner := strings.Trim(seg, "[]")
	if rest, ok := strings.CutPrefix(inner, "..."); ok {
		return "*" + rest
	}
	return ":" + inner
}

func pathParams(p string) []string {
	var params []string
	for _, seg := range strings.Split(p, "/") {
		switch {
		case strings.HasPrefix(seg, ":") && len(seg) > 1:
			params = append(params, strings.TrimSuffix(seg[1:], "?"))
		case strings.HasPrefix(seg, "*") && len(seg) > 1:
			params = append(params, seg[1:])
		}
	}
	return params
}

var reactRouterMarkers = []string{
	"createBrowserRouter", "createHashRouter", "createMemoryRouter", "BrowserRouter", "useRoutes", "<Routes", "<Route ",
}

// routerKind reports which router a file configures, or "" when it does
// not look like a routing table.
func routerKind(text string) string {
	switch {
	case strings.Contains(text, "vue-router") || strings.Contains(text, "new VueRouter"):
		return RouteVue
	case strings.Contains(text, "RouterModule"):
		return RouteAngular
	}
	for _, m := range reactRouterMarkers {
		if strings.Contains(text, m) {
			return RouteReact
		}
	}
	return ""
}

type tableRoute struct {
	pos       int
	path      string
	component string
}

var (
	jsxRouteRe     = regexp.MustCompile(`<Route[\s/>]`)
	jsxCloseRe     = regexp.MustCompile(`</Route\s*>`)
	jsxPathRe      = regexp.MustCompile("\\bpath\\s*=\\s*\\{?\\s*[\"'`]([^\"'`]+)[\"'`]")
	jsxElementRe   = regexp.MustCompile(`\b(?:element\s*=\s*\{\s*<\s*([\w$.]+)|component\s*=\s*\{\s*([\w$.]+))`)
	objPathRe      = regexp.MustCompile("\\bpath\\s*:\\s*[\"'`]([^\"'`]*)[\"'`]")
	objComponentRe = regexp.MustCompile("\\b(?:component\\s*:\\s*(?:\\(\\)\\s*=>\\s*import\\(\\s*[\"'`]([^\"'`]+)[\"'`]\\s*\\)|([\\w$.]+))|element\\s*:\\s*<\\s*([\\w$.]+))")
)

// tableRoutes reads JSX <Route> trees and route object literals from one
// file. Nested routes are joined onto their parent's path.
func tableRoutes(text string) []tableRoute {
	routes, tags := jsxRoutes(text)
	routes = append(routes, objectRoutes(text, tags)...)
	sort.SliceStable(routes, func(i, j int) bool { return routes[i].pos < routes[j].pos })
	return routes
}

type span struct{ start, end int }

func (s span) contains(i int) bool { return i >= s.start && i <= s.end }

func jsxRoutes(text string) ([]tableRoute, []span) {
	type event struct {
		pos   int
		close bool
		self  bool
		tag   string
	}
	var events []event
	var tags []span
	for _, loc := range jsxRouteRe.FindAllStringIndex(text, -1) {
		end, self := tagEnd(text, loc[0])
		if end < 0 {
			continue
		}
		tags = append(tags, span{loc[0], end})
		events = append(events, event{pos: loc[0], self: self, tag: text[loc[0] : end+1]})
	}
	for _, loc := range jsxCloseRe.FindAllStringIndex(text, -1) {
		events = append(events, event{pos: loc[0], close: true})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].pos < events[j].pos })

	var out []tableRoute
	var stack []string
	for _, ev := range events {
		if ev.close {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		parent := ""
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}
		full := parent
		if m := jsxPathRe.FindStringSubmatch(ev.tag); m != nil {
			full = joinRoute(parent, m[1])
			component := ""
			if c := jsxElementRe.FindStringSubmatch(ev.tag); c != nil {
				component = firstNonEmpty(c[1], c[2])
			}
			out = append(out, tableRoute{pos: ev.pos, path: full, component: component})
		}
		if !ev.self {
			stack = append(stack, full)
		}
	}
	return out, tags
}

// tagEnd returns the index of the '>' closing the tag that starts at
// start, skipping {expressions} and quoted attribute values, and whether
// the tag is self-closing.
func tagEnd(text string, start int) (int, bool) {
	depth := 0
	var quote byte
	for i := start + 1; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			if depth == 0 {
				quote = c
			}
		case '{':
			depth++
		case '}':
			depth--
		case '>':
			if depth == 0 {
				return i, text[i-1] == '/'
			}
		}
	}
	return -1, false
}

func objectRoutes(text string, skip []span) []tableRoute {
	type object struct {
		pos       int
		path      string
		component string
		span      span
		parent    int
	}
	var objs []object
	for _, m := range objPathRe.FindAllStringSubmatchIndex(text, -1) {
		inTag := false
		for _, s := range skip {
			if s.contains(m[0]) {
				inTag = true
				break
			}
		}
		if inTag {
			continue
		}
		start := enclosingBrace(text, m[0])
		if start < 0 {
			continue
		}
		end := matchingBrace(text, start)
		if end < 0 {
			end = len(text) - 1
		}
		body := text[start:end]
		if i := strings.Index(body, "children"); i >= 0 {
			body = body[:i]
		}
		component := ""
		if c := objComponentRe.FindStringSubmatch(body); c != nil {
			component = firstNonEmpty(importName(c[1]), c[2], c[3])
		}
		objs = append(objs, object{
			pos:       m[0],
			path:      text[m[2]:m[3]],
			component: component,
			span:      span{start, end},
			parent:    -1,
		})
	}

	for i := range objs {
		best := -1
		for j := range objs {
			if i == j {
				continue
			}
			outer, inner := objs[j].span, objs[i].span
			if outer.start < inner.start && outer.end > inner.end {
				if best < 0 || objs[j].span.start > objs[best].span.start {
					best = j
				}
			}
		}
		objs[i].parent = best
	}

	resolved := make([]string, len(objs))
	done := make([]bool, len(objs))
	var resolve func(i, hops int) string
	resolve = func(i, hops int) string {
		if done[i] {
			return resolved[i]
		}
		parent := ""
		if p := objs[i].parent; p >= 0 && hops < len(objs) {
			parent = resolve(p, hops+1)
		}
		resolved[i] = joinRoute(parent, objs[i].path)
		done[i] = true
		return resolved[i]
	}

	var out []tableRoute
	for i, o := range objs {
		p := resolve(i, 0)
		if p == "" {
			continue
		}
		out = append(out, tableRoute{pos: o.pos, path: p, component: o.component})
	}
	return out
}

// enclosingBrace returns the index of the '{' that encloses i.
func enclosingBrace(text string, i int) int {
	depth := 0
	for j := i - 1; j >= 0; j-- {
		switch text[j] {
		case '}':
			depth++
		case '{':
			if depth == 0 {
				return j
			}
			depth--
		}
	}
	return -1
}

func matchingBrace(text string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// joinRoute resolves child against parent. Absolute children and
// top-level paths are kept as written.
func joinRoute(parent, child string) string {
	if parent == "" || strings.HasPrefix(child, "/") {
		return child
	}
	if child == "" {
		return parent
	}
	return strings.TrimSuffix(parent, "/") + "/" + child
}

func importName(p string) string {
	if p == "" {
		return ""
	}
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
