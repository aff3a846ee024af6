package extract

import (
	"context"
	"path"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// Spring extracts routes, controllers, services and entities from Spring
// Boot sources using annotation patterns.
type Spring struct{}

// Name implements Extractor.
func (Spring) Name() string { return "spring" }

const (
	springCollectFiles    = 250
	springProcessFiles    = 200
	springControllerFiles = 150
	springComponentFiles  = 100
	springMaxFileBytes    = 80000
	springMaxMethods      = 15
	springConfigLines     = 30
	springConfigBytes     = 20000
)

// UnknownHandler is the route handler when no controller class is found.
const UnknownHandler = "Unknown"

var springSourceRoots = []string{"src/main/java", "src/main/kotlin", "src"}

var springConfigCandidates = []string{
	"src/main/resources/application.properties",
	"src/main/resources/application.yml",
	"application.properties",
	"application.yml",
}

var (
	controllerAnnotRe = regexp.MustCompile(`@(?:RestController|Controller)\b`)
	classDeclRe       = regexp.MustCompile(`\bclass\s+(\w+)`)
	requestMappingRe  = regexp.MustCompile(`@RequestMapping\s*\(([^)]*)\)`)
	verbMappingRe     = regexp.MustCompile(`@(Get|Post|Put|Delete|Patch)Mapping\b(?:\s*\(([^)]*)\))?`)
	requestMethodRe   = regexp.MustCompile(`RequestMethod\.(GET|POST|PUT|DELETE|PATCH)`)
	namedPathRe       = regexp.MustCompile(`(?:value|path)\s*=\s*\{?\s*["']([^"']+)["']`)
	barePathRe        = regexp.MustCompile(`^\s*\{?\s*["']([^"']+)["']`)
	anyMappingRe      = regexp.MustCompile(`@(?:Request|Get|Post|Put|Delete|Patch)Mapping\s*(?:\(([^)]*)\))?`)
	javaMethodRe      = regexp.MustCompile(`(?:public|private|protected)\s+(?:static\s+)?(?:final\s+)?(?:[\w.]+(?:<[^>]+>)?(?:\[\])?\s+)?(\w+)\s*\(`)
	kotlinFunRe       = regexp.MustCompile(`\bfun\s+(\w+)\s*\(`)
	javaFieldRe       = regexp.MustCompile(`(?:private|protected)\s+(?:final\s+)?[\w.]+(?:<[^>]+>)?(?:\[\])?\s+(\w+)\s*[;=]`)
	kotlinFieldRe     = regexp.MustCompile(`\b(?:val|var)\s+(\w+)\s*:`)
	appNamePropRe     = regexp.MustCompile(`(?m)^\s*spring\.application\.name\s*[=:]\s*(.+?)\s*$`)
)

// Extract implements Extractor.
func (Spring) Extract(ctx context.Context, src Source) Entities {
	ent := Entities{
		Routes:      []Route{},
		Controllers: []ControllerModule{},
		Models:      []ModelDefinition{},
		Services:    []Service{},
	}

	seen := make(map[string]bool)
	for i, rel := range springFiles(src) {
		if i >= springProcessFiles || ctx.Err() != nil {
			break
		}
		text := src.read(rel, springMaxFileBytes+1)
		if text == "" || len(text) > springMaxFileBytes {
			continue
		}

		for _, r := range SpringRoutes(text, rel) {
			if !seen[r.Key()] {
				seen[r.Key()] = true
				ent.Routes = append(ent.Routes, r)
			}
		}
		if i < springControllerFiles && controllerAnnotRe.MatchString(text) {
			ent.Controllers = append(ent.Controllers, ControllerModule{
				Name:    className(text, rel),
				File:    rel,
				Methods: springMethods(text),
			})
		}
		if i >= springComponentFiles {
			continue
		}
		if strings.Contains(text, "@Service") || strings.Contains(text, "@Component") {
			ent.Services = append(ent.Services, Service{Name: className(text, rel), File: rel})
		}
		if strings.Contains(text, "@Entity") {
			ent.Models = append(ent.Models, ModelDefinition{
				Name:          className(text, rel),
				File:          rel,
				SchemaSummary: entityFields(text),
			})
		}
	}

	sort.SliceStable(ent.Routes, func(i, j int) bool {
		if ent.Routes[i].SourceFile != ent.Routes[j].SourceFile {
			return ent.Routes[i].SourceFile < ent.Routes[j].SourceFile
		}
		return ent.Routes[i].Path < ent.Routes[j].Path
	})
	ent.ApplicationConfig, ent.ApplicationName = applicationConfig(src)
	return ent
}

// springFiles returns the first Java and Kotlin files under the first
// existing conventional source root, in sorted order.
func springFiles(src Source) []string {
	prefix := ""
	for _, d := range springSourceRoots {
		if src.Root != "" && scanner.IsDir(src.Root, d) {
			prefix = d + "/"
			break
		}
	}
	sorted := append([]string(nil), src.Files...)
	sort.Strings(sorted)

	var out []string
	for _, f := range sorted {
		if len(out) >= springCollectFiles {
			break
		}
		if strings.HasPrefix(f, prefix) && scanner.HasExt(f, ".java", ".kt") {
			out = append(out, f)
		}
	}
	return out
}

// SpringRoutes recovers the routes one source file declares. Method-level
// mappings are joined onto the class-level @RequestMapping; a file with
// mapping annotations but no method-level verbs yields GET routes for the
// mapped paths.
func SpringRoutes(text, sourceFile string) []Route {
	handler := UnknownHandler
	classAt := len(text)
	if loc := classDeclRe.FindStringSubmatchIndex(text); loc != nil {
		classAt = loc[0]
		if controllerAnnotRe.MatchString(text) {
			handler = text[loc[2]:loc[3]]
		}
	}

	base := ""
	for _, m := range requestMappingRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] < classAt {
			base = strings.TrimSuffix(mappingPath(text[m[2]:m[3]]), "/")
		}
	}

	var routes []Route
	for _, m := range verbMappingRe.FindAllStringSubmatchIndex(text, -1) {
		args := ""
		if m[4] >= 0 {
			args = text[m[4]:m[5]]
		}
		routes = append(routes, Route{
			Method:     strings.ToUpper(text[m[2]:m[3]]),
			Path:       joinMapping(base, mappingPath(args)),
			Handler:    handler,
			SourceFile: sourceFile,
		})
	}
	for _, m := range requestMappingRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] < classAt {
			continue
		}
		args := text[m[2]:m[3]]
		verb := requestMethodRe.FindStringSubmatch(args)
		if verb == nil {
			continue
		}
		routes = append(routes, Route{
			Method:     verb[1],
			Path:       joinMapping(base, mappingPath(args)),
			Handler:    handler,
			SourceFile: sourceFile,
		})
	}
	if len(routes) > 0 {
		return routes
	}

	for _, m := range anyMappingRe.FindAllStringSubmatchIndex(text, -1) {
		p := "/"
		if m[2] >= 0 {
			p = mappingPath(text[m[2]:m[3]])
		}
		routes = append(routes, Route{Method: "GET", Path: p, Handler: handler, SourceFile: sourceFile})
	}
	return routes
}

// mappingPath returns the path literal of an annotation argument list, or
// "/" when it has none.
func mappingPath(args string) string {
	if m := namedPathRe.FindStringSubmatch(args); m != nil {
		return m[1]
	}
	if m := barePathRe.FindStringSubmatch(args); m != nil {
		return m[1]
	}
	return "/"
}

func joinMapping(base, p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if base == "" {
		return p
	}
	if p == "/" {
		return base
	}
	return base + p
}

func className(text, rel string) string {
	if m := classDeclRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return baseName(rel)
}

func springMethods(text string) []string {
	class := className(text, "")
	var set orderedSet
	for _, re := range []*regexp.Regexp{javaMethodRe, kotlinFunRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if m[1] != class {
				set.add(m[1])
			}
		}
	}
	methods := set.list()
	if len(methods) > springMaxMethods {
		methods = methods[:springMaxMethods]
	}
	return methods
}

func entityFields(text string) string {
	var set orderedSet
	for _, re := range []*regexp.Regexp{javaFieldRe, kotlinFieldRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			set.add(m[1])
		}
	}
	if len(set.items) == 0 {
		return EntityNoFields
	}
	return strings.Join(set.items, ", ")
}

// applicationConfig returns the first non-comment lines of the first
// application.properties or application.yml found, plus the configured
// spring.application.name when one is set.
func applicationConfig(src Source) (string, string) {
	for _, rel := range springConfigCandidates {
		text := src.read(rel, springConfigBytes)
		if strings.TrimSpace(text) == "" {
			continue
		}
		var lines []string
		for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
			t := strings.TrimSpace(line)
			if t == "" || strings.HasPrefix(t, "#") {
				continue
			}
			lines = append(lines, line)
			if len(lines) == springConfigLines {
				break
			}
		}
		return strings.Join(lines, "\n"), applicationName(rel, text)
	}
	return "", ""
}

func applicationName(rel, text string) string {
	if path.Ext(rel) != ".yml" {
		if m := appNamePropRe.FindStringSubmatch(text); m != nil {
			return m[1]
		}
		return ""
	}
	var doc struct {
		Spring struct {
			Application struct {
				Name string `yaml:"name"`
			} `yaml:"application"`
		} `yaml:"spring"`
	}
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return ""
	}
	return doc.Spring.Application.Name
}
