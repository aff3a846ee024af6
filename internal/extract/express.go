package extract

import (
	"context"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// Express extracts routes, controllers and models from Node.js servers.
type Express struct{}

// Name implements Extractor.
func (Express) Name() string { return "express" }

// Extract implements Extractor.
func (e Express) Extract(ctx context.Context, src Source) Entities {
	return Entities{
		Routes:      ExtractRoutes(ctx, src.Files, src.read),
		Controllers: ExtractControllers(ctx, src.Files, src.read),
		Models:      ExtractModels(ctx, src.Files, src.read),
	}
}

var nodeSourceExts = []string{".js", ".mjs", ".cjs", ".ts"}

// maxCallScan bounds how far past a route call's opening paren the
// closing paren is searched for.
const maxCallScan = 2000

var (
	routeCallRe  = regexp.MustCompile("([\\w$]*)\\s*\\.\\s*(get|post|put|patch|delete|all)\\s*\\(\\s*['\"`]([^'\"`]*)['\"`]\\s*,")
	requireRe    = regexp.MustCompile("^require\\s*\\(\\s*['\"`]([^'\"`]+)['\"`]\\s*\\)(?:\\s*\\.\\s*(\\w+))?")
	identRe      = regexp.MustCompile(`^[\w$]+$`)
	wrapperRe    = regexp.MustCompile(`(?s)^[\w$.]+\s*\((.*)\)$`)
	bindSuffixRe = regexp.MustCompile(`\.bind\s*\([^)]*\)$`)
	anonymousRe  = regexp.MustCompile(`^(?:async\s+)?(?:function\b|\([^)]*\)\s*=>|[\w$]+\s*=>)`)
	leadCallRe   = regexp.MustCompile(`^[\w$.]+\s*\(\s*`)
	leadExprRe   = regexp.MustCompile(`^[\w$]+(?:\s*\.\s*[\w$]+)*`)
)

// Receivers that look like route registration but are outbound HTTP
// clients.
var clientReceivers = map[string]bool{
	"axios": true, "http": true, "https": true, "request": true, "superagent": true,
	"client": true, "fetch": true, "got": true, "ky": true, "agent": true,
}

// AnonymousHandler names inline function handlers.
const AnonymousHandler = "anonymous"

// ExtractRoutes scans every Node source file in sorted path order for
// verb(path, ..., handler) call sites. Routes are deduplicated on
// METHOD:path with the first occurrence kept, then sorted by source file
// and path.
func ExtractRoutes(ctx context.Context, files []string, read scanner.ReadFunc) []Route {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	seen := make(map[string]bool)
	out := []Route{}
	for _, rel := range sorted {
		if ctx.Err() != nil {
			break
		}
		if !scanner.HasExt(rel, nodeSourceExts...) {
			continue
		}
		for _, r := range routesInText(read(rel, 0), rel) {
			if seen[r.Key()] {
				continue
			}
			seen[r.Key()] = true
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SourceFile != out[j].SourceFile {
			return out[i].SourceFile < out[j].SourceFile
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func routesInText(text, sourceFile string) []Route {
	var routes []Route
	for _, m := range routeCallRe.FindAllStringSubmatchIndex(text, -1) {
		receiver := text[m[2]:m[3]]
		if clientReceivers[strings.ToLower(receiver)] {
			continue
		}
		open := strings.IndexByte(text[m[0]:m[1]], '(')
		if open < 0 {
			continue
		}
		open += m[0]
		var handler string
		if end := closingIndex(text, open, maxCallScan); end >= 0 {
			args := splitTopLevel(text[m[1]:end])
			expr := strings.TrimSpace(args[len(args)-1])
			if expr == "" {
				continue
			}
			handler = HandlerName(expr)
		} else {
			handler = unclosedHandler(text[m[1]:min(len(text), m[1]+maxCallScan)])
		}
		routes = append(routes, Route{
			Method:     strings.ToUpper(text[m[4]:m[5]]),
			Path:       strings.TrimSpace(text[m[6]:m[7]]),
			Handler:    handler,
			SourceFile: sourceFile,
		})
	}
	return routes
}

// unclosedHandler names the handler of a route call whose closing paren
// was not found, from the argument text that follows the path. Any
// argument opening an inline function, directly or inside a wrapper call,
// makes the handler anonymous. Otherwise the leading identifier or member
// expression of the first argument is used.
func unclosedHandler(rest string) string {
	args := splitTopLevel(rest)
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		for range 4 {
			if anonymousRe.MatchString(arg) {
				return AnonymousHandler
			}
			loc := leadCallRe.FindStringIndex(arg)
			if loc == nil {
				break
			}
			arg = arg[loc[1]:]
		}
	}
	if lead := leadExprRe.FindString(strings.TrimSpace(args[0])); lead != "" {
		return HandlerName(lead)
	}
	return AnonymousHandler
}

// HandlerName shortens a handler expression: require('x').fn becomes
// x.fn, a bare identifier is kept, inline functions are "anonymous",
// wrapper calls are unwrapped and member access keeps the last segment.
func HandlerName(expr string) string {
	expr = strings.TrimSpace(expr)
	for range 4 {
		if m := requireRe.FindStringSubmatch(expr); m != nil {
			if m[2] != "" {
				return m[1] + "." + m[2]
			}
			return m[1]
		}
		if identRe.MatchString(expr) {
			return expr
		}
		if anonymousRe.MatchString(expr) {
			return AnonymousHandler
		}
		if loc := bindSuffixRe.FindStringIndex(expr); loc != nil {
			expr = strings.TrimSpace(expr[:loc[0]])
			continue
		}
		if m := wrapperRe.FindStringSubmatch(expr); m != nil {
			args := splitTopLevel(m[1])
			expr = strings.TrimSpace(args[len(args)-1])
			continue
		}
		break
	}
	if strings.Contains(expr, ".") {
		return strings.TrimSpace(expr[strings.LastIndex(expr, ".")+1:])
	}
	return expr
}

var (
	moduleExportsObjRe = regexp.MustCompile(`module\.exports\s*=\s*\{`)
	moduleExportsIDRe  = regexp.MustCompile(`module\.exports\s*=\s*([A-Za-z_$][\w$]*)\s*;?`)
	exportsPropRe      = regexp.MustCompile(`(?:module\.)?exports\.([\w$]+)\s*=`)
	esExportRe         = regexp.MustCompile(`export\s+(?:async\s+)?(?:function\s*\*?\s*|const\s+|let\s+|var\s+|class\s+)([\w$]+)`)
	esExportDefaultRe  = regexp.MustCompile(`export\s+default\s+(?:async\s+)?(?:function\s*\*?\s*|class\s+)?([A-Za-z_$][\w$]*)`)
	objectKeyRe        = regexp.MustCompile(`^(?:async\s+)?\*?\s*([A-Za-z_$][\w$]*)\s*(?::|\()`)
)

// ExtractControllers returns the Node source files under a controllers
// directory that export at least one method or whose file name contains
// "controller".
func ExtractControllers(ctx context.Context, files []string, read scanner.ReadFunc) []ControllerModule {
	out := []ControllerModule{}
	for _, rel := range sortedUnder(files, "controllers", nodeSourceExts) {
		if ctx.Err() != nil {
			break
		}
		name := baseName(rel)
		methods := ExportedMethods(read(rel, 0))
		if len(methods) == 0 && !strings.Contains(strings.ToLower(name), "controller") {
			continue
		}
		out = append(out, ControllerModule{Name: name, File: rel, Methods: methods})
	}
	return out
}

// ExportedMethods lists the names a CommonJS or ES module exports, in
// order of first appearance.
func ExportedMethods(text string) []string {
	var set orderedSet
	for _, loc := range moduleExportsObjRe.FindAllStringIndex(text, -1) {
		open := loc[1] - 1
		end := closingIndex(text, open, 0)
		if end < 0 {
			continue
		}
		for _, key := range objectKeys(text[open+1 : end]) {
			set.add(key)
		}
	}
	for _, m := range exportsPropRe.FindAllStringSubmatch(text, -1) {
		set.add(m[1])
	}
	for _, m := range esExportRe.FindAllStringSubmatch(text, -1) {
		set.add(m[1])
	}
	for _, m := range esExportDefaultRe.FindAllStringSubmatch(text, -1) {
		if !jsKeywords[m[1]] {
			set.add(m[1])
		}
	}
	if m := moduleExportsIDRe.FindStringSubmatch(text); m != nil {
		set.add(m[1])
	}
	return set.list()
}

var jsKeywords = map[string]bool{"function": true, "class": true, "async": true}

// objectKeys returns the top-level keys of an object literal body: name:,
// name( method shorthand and bare shorthand properties.
func objectKeys(body string) []string {
	var keys []string
	for _, part := range splitTopLevel(body) {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, "...") {
			continue
		}
		if identRe.MatchString(part) {
			keys = append(keys, part)
			continue
		}
		if m := objectKeyRe.FindStringSubmatch(part); m != nil {
			keys = append(keys, m[1])
		}
	}
	return keys
}

var (
	modelKeywordRe = regexp.MustCompile(`(?i)mongoose|schema|model|sequelize|define`)
	schemaOpenRe   = regexp.MustCompile(`(?:new\s+)?(?:mongoose\.)?Schema\s*\(\s*\{|\.define\s*\(\s*['"` + "`" + `][^'"` + "`" + `]*['"` + "`" + `]\s*,\s*\{|\.init\s*\(\s*\{`)
	typedFieldRe   = regexp.MustCompile(`([\w$]+)\s*:\s*\{\s*type\s*:`)
)

// ExtractModels returns the Node source files under a models directory
// that mention a schema or ORM keyword, with a field summary.
func ExtractModels(ctx context.Context, files []string, read scanner.ReadFunc) []ModelDefinition {
	out := []ModelDefinition{}
	for _, rel := range sortedUnder(files, "models", nodeSourceExts) {
		if ctx.Err() != nil {
			break
		}
		text := read(rel, 0)
		if !modelKeywordRe.MatchString(text) {
			continue
		}
		out = append(out, ModelDefinition{
			Name:          baseName(rel),
			File:          rel,
			SchemaSummary: SchemaSummary(text),
		})
	}
	return out
}

// SchemaSummary joins the field names declared in schema blocks and
// field: { type: ... } declarations, or returns SchemaNotParsed.
func SchemaSummary(text string) string {
	var set orderedSet
	for _, loc := range schemaOpenRe.FindAllStringIndex(text, -1) {
		open := loc[1] - 1
		end := closingIndex(text, open, 0)
		if end < 0 {
			continue
		}
		for _, key := range objectKeys(text[open+1 : end]) {
			set.add(key)
		}
	}
	for _, m := range typedFieldRe.FindAllStringSubmatch(text, -1) {
		set.add(m[1])
	}
	if len(set.items) == 0 {
		return SchemaNotParsed
	}
	return strings.Join(set.items, ", ")
}

func sortedUnder(files []string, dir string, exts []string) []string {
	var out []string
	for _, f := range scanner.FilesUnder(files, dir) {
		if scanner.HasExt(f, exts...) {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

func baseName(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}
