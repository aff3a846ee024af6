package detect

import (
	"os"
	"path/filepath"
	"strings"
)

// Framework detection fallbacks.
const (
	FrameworkUnknown     = "Unknown"
	FrameworkNotDetected = "Framework not detected"
	FrameworkSpringBoot  = "Spring Boot"
)

type signature struct {
	deps []string
	name string
}

// nodeSignatures is ordered most specific first: meta-frameworks before the
// UI library they build on, server frameworks before UI libraries.
var nodeSignatures = []signature{
	{[]string{"next"}, "Next.js"},
	{[]string{"nuxt", "nuxt3"}, "Nuxt.js"},
	{[]string{"@nestjs/core"}, "NestJS"},
	{[]string{"express"}, "Express.js"},
	{[]string{"fastify"}, "Fastify"},
	{[]string{"koa"}, "Koa"},
	{[]string{"@angular/core"}, "Angular"},
	{[]string{"react"}, "React"},
	{[]string{"vue"}, "Vue.js"},
	{[]string{"svelte"}, "Svelte"},
}

var pythonSignatures = []signature{
	{[]string{"django"}, "Django"},
	{[]string{"fastapi"}, "FastAPI"},
	{[]string{"flask"}, "Flask"},
}

// BuildDescriptors are the JVM build files checked for Spring Boot.
var BuildDescriptors = []string{"pom.xml", "build.gradle", "build.gradle.kts"}

// DetectFramework names the application framework used at root.
func DetectFramework(root string) string {
	if IsSpringBoot(root) {
		return FrameworkSpringBoot
	}

	if pkg := ReadPackageJSON(root); pkg != nil {
		for _, sig := range nodeSignatures {
			if pkg.HasDep(sig.deps...) {
				return sig.name
			}
		}
		return FrameworkNotDetected
	}
	if anyExists(root, []string{"package.json"}) {
		// Present but unparseable.
		return FrameworkNotDetected
	}

	if anyExists(root, []string{"requirements.txt", "pyproject.toml"}) {
		deps := ReadPythonDeps(root)
		for _, sig := range pythonSignatures {
			for _, d := range deps {
				if d == sig.deps[0] {
					return sig.name
				}
			}
		}
		return FrameworkNotDetected
	}

	return FrameworkUnknown
}

// IsSpringBoot reports whether a build descriptor at root declares
// spring-boot.
func IsSpringBoot(root string) bool {
	for _, f := range BuildDescriptors {
		data, err := os.ReadFile(filepath.Join(root, f))
		if err != nil {
			continue
		}
		if strings.Contains(string(data), "spring-boot") {
			return true
		}
	}
	return false
}
