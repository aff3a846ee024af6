package extract

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// memSource builds a file list and reader over an in-memory tree.
func memSource(files map[string]string) ([]string, scanner.ReadFunc) {
	var rels []string
	for rel := range files {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	return rels, func(rel string, limit int) string {
		text := files[rel]
		if limit > 0 && len(text) > limit {
			return text[:limit]
		}
		return text
	}
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func TestExtractRoutes_SingleRouterFile(t *testing.T) {
	files, read := memSource(map[string]string{
		"routes/users.js": "const router = require('express').Router();\n" +
			"router.get('/users', userController.list);\n" +
			"module.exports = router;\n",
	})

	routes := ExtractRoutes(context.Background(), files, read)

	assert.Equal(t, []Route{
		{Method: "GET", Path: "/users", Handler: "list", SourceFile: "routes/users.js"},
	}, routes)
}

func TestExtractRoutes_FirstOccurrenceBySortedFileWins(t *testing.T) {
	files, read := memSource(map[string]string{
		"routes/users.js": "router.get('/users', ctrl.fromRoutes);\n",
		"app.js":          "app.get('/users', ctrl.fromApp);\napp.post('/users', ctrl.create);\n",
	})

	routes := ExtractRoutes(context.Background(), files, read)

	require.Len(t, routes, 2)
	assert.Equal(t, "fromApp", routes[0].Handler)
	assert.Equal(t, "app.js", routes[0].SourceFile)
	assert.Equal(t, "POST", routes[1].Method)
}

func TestExtractRoutes_MiddlewareAndInlineHandlers(t *testing.T) {
	files, read := memSource(map[string]string{
		"server.js": `
app.put('/users/:id', auth, validate(schema), users.update);
app.get('/health', (req, res) => { res.json({ ok: true, msg: "a, b" }); });
app.delete("/users/:id", asyncHandler(users.remove));
app.patch(` + "`/users/:id/name`" + `, users.rename.bind(users));
`,
	})

	routes := ExtractRoutes(context.Background(), files, read)

	byPath := map[string]Route{}
	for _, r := range routes {
		byPath[r.Method+" "+r.Path] = r
	}
	assert.Equal(t, "update", byPath["PUT /users/:id"].Handler)
	assert.Equal(t, AnonymousHandler, byPath["GET /health"].Handler)
	assert.Equal(t, "remove", byPath["DELETE /users/:id"].Handler)
	assert.Equal(t, "rename", byPath["PATCH /users/:id/name"].Handler)
}

func TestExtractRoutes_LongInlineHandlerIsKept(t *testing.T) {
	body := strings.Repeat("  const x = compute(a, b);\n", 100)
	files, read := memSource(map[string]string{
		"routes/users.js": "router.get('/users', auth, async (req, res) => {\n" + body + "});\n" +
			"router.post('/users', create);\n",
	})

	routes := ExtractRoutes(context.Background(), files, read)

	assert.Equal(t, []Route{
		{Method: "GET", Path: "/users", Handler: AnonymousHandler, SourceFile: "routes/users.js"},
		{Method: "POST", Path: "/users", Handler: "create", SourceFile: "routes/users.js"},
	}, routes)
}

func TestExtractRoutes_RegexLiteralWithQuoteInHandler(t *testing.T) {
	files, read := memSource(map[string]string{
		"app.js": "app.get('/clean', (req,res) => res.send(q.replace(/\"/g, '')))\n" +
			"app.get('/next', h)\n",
	})

	routes := ExtractRoutes(context.Background(), files, read)

	assert.Equal(t, []Route{
		{Method: "GET", Path: "/clean", Handler: AnonymousHandler, SourceFile: "app.js"},
		{Method: "GET", Path: "/next", Handler: "h", SourceFile: "app.js"},
	}, routes)
}

func TestExtractRoutes_StableAcrossRunsAndInputOrder(t *testing.T) {
	contents := map[string]string{
		"app.js":           "app.get('/users', ctrl.fromApp);\napp.post('/users', ctrl.create);\n",
		"routes/users.js":  "router.get('/users', ctrl.fromRoutes);\nrouter.delete('/users/:id', ctrl.remove);\n",
		"routes/admin.js":  "router.get('/admin', admin.index);\nrouter.post('/users', ctrl.shadowed);\n",
		"server/health.js": "app.get('/health', (req, res) => res.end());\n",
	}
	files, read := memSource(contents)
	reversed := make([]string, len(files))
	for i, f := range files {
		reversed[len(files)-1-i] = f
	}

	first := ExtractRoutes(context.Background(), files, read)
	second := ExtractRoutes(context.Background(), reversed, read)

	require.Len(t, first, 5)
	assert.Equal(t, first, second)
	assert.Equal(t, "create", first[1].Handler)
}

func TestExtractRoutes_SkipsHTTPClientCalls(t *testing.T) {
	files, read := memSource(map[string]string{
		"src/api.js": "axios.get('/api/users', config);\nrouter.get('/local', handler);\n",
	})

	routes := ExtractRoutes(context.Background(), files, read)

	require.Len(t, routes, 1)
	assert.Equal(t, "/local", routes[0].Path)
}

func TestExtractRoutes_IgnoresNonSourceFiles(t *testing.T) {
	files, read := memSource(map[string]string{
		"README.md": "router.get('/docs', handler)",
	})

	assert.Empty(t, ExtractRoutes(context.Background(), files, read))
}

func TestExtractRoutes_CancelledContext(t *testing.T) {
	files, read := memSource(map[string]string{
		"app.js": "app.get('/a', a);",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	routes := ExtractRoutes(ctx, files, read)

	assert.NotNil(t, routes)
	assert.Empty(t, routes)
}

func TestHandlerName(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"list", "list"},
		{"userController.list", "list"},
		{"require('./handlers').list", "./handlers.list"},
		{"require('./health')", "./health"},
		{"(req, res) => res.send('ok')", AnonymousHandler},
		{"async (req, res) => {}", AnonymousHandler},
		{"function (req, res) {}", AnonymousHandler},
		{"req => res", AnonymousHandler},
		{"asyncHandler(users.create)", "create"},
		{"users.remove.bind(users)", "remove"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, HandlerName(tt.expr))
		})
	}
}

// ---------------------------------------------------------------------------
// Controllers
// ---------------------------------------------------------------------------

func TestExtractControllers(t *testing.T) {
	files, read := memSource(map[string]string{
		"controllers/userController.js": `
exports.list = async (req, res) => {};
exports.create = async (req, res) => {};
`,
		"controllers/orderController.js": `
module.exports = {
  getOrders: async (req, res) => { res.json([]) },
  createOrder(req, res) { },
  deleteOrder,
};
`,
		"controllers/helpers.js":        "const x = 1;\n",
		"controllers/baseController.js": "// empty\n",
		"routes/userController.js":      "exports.ignored = 1;\n",
	})

	controllers := ExtractControllers(context.Background(), files, read)

	assert.Equal(t, []ControllerModule{
		{Name: "baseController", File: "controllers/baseController.js", Methods: []string{}},
		{Name: "orderController", File: "controllers/orderController.js", Methods: []string{"getOrders", "createOrder", "deleteOrder"}},
		{Name: "userController", File: "controllers/userController.js", Methods: []string{"list", "create"}},
	}, controllers)
}

func TestExportedMethods_ESModules(t *testing.T) {
	text := `
export const list = async (req, res) => {};
export async function create(req, res) {}
export default function (req, res) {}
`
	assert.Equal(t, []string{"list", "create"}, ExportedMethods(text))
}

func TestExportedMethods_DefaultAlias(t *testing.T) {
	text := "class UserController {}\nmodule.exports = UserController;\n"

	assert.Equal(t, []string{"UserController"}, ExportedMethods(text))
}

// ---------------------------------------------------------------------------
// Models
// ---------------------------------------------------------------------------

func TestExtractModels(t *testing.T) {
	files, read := memSource(map[string]string{
		"models/User.js": `
const mongoose = require('mongoose');
const userSchema = new mongoose.Schema({
  name: { type: String, required: true },
  email: String,
  roles: [String],
}, { timestamps: true });
module.exports = mongoose.model('User', userSchema);
`,
		"models/Product.js": `
const Product = sequelize.define('Product', {
  title: DataTypes.STRING,
  price: { type: DataTypes.FLOAT },
});
`,
		"models/Legacy.js": "const model = load('legacy');\n",
		"models/index.js":  "const x = 1;\n",
	})

	models := ExtractModels(context.Background(), files, read)

	assert.Equal(t, []ModelDefinition{
		{Name: "Legacy", File: "models/Legacy.js", SchemaSummary: SchemaNotParsed},
		{Name: "Product", File: "models/Product.js", SchemaSummary: "title, price"},
		{Name: "User", File: "models/User.js", SchemaSummary: "name, email, roles"},
	}, models)
}

// ---------------------------------------------------------------------------
// Spring
// ---------------------------------------------------------------------------

const userControllerJava = `package com.example;

@RestController
@RequestMapping("/api/users/")
public class UserController {
    private final UserService service;

    public UserController(UserService service) { this.service = service; }

    @GetMapping
    public List<User> list() { return service.all(); }

    @GetMapping("/{id}")
    public User get(@PathVariable Long id) { return service.find(id); }

    @PostMapping(value = "/create", consumes = "application/json")
    public User create(@RequestBody User u) { return service.save(u); }

    @RequestMapping(value = "/legacy", method = RequestMethod.DELETE)
    public void legacy() {}
}
`

func TestSpring_Extract(t *testing.T) {
	root := t.TempDir()
	write(t, root, "pom.xml", "<artifactId>spring-boot-starter-web</artifactId>")
	write(t, root, "src/main/java/com/example/UserController.java", userControllerJava)
	write(t, root, "src/main/java/com/example/UserService.java", "@Service\npublic class UserService {}\n")
	write(t, root, "src/main/java/com/example/User.java", `@Entity
public class User {
    @Id
    private Long id;
    private String name;
    protected List<String> tags = new ArrayList<>();
}
`)
	write(t, root, "src/main/resources/application.yml", `# server settings
spring:
  application:
    name: user-service

server:
  port: 8080
`)

	ctx := context.Background()
	src := Source{
		Root:  root,
		Files: scanner.GetAllFiles(ctx, root, scanner.Options{}),
		Read:  scanner.NewTextCache(16, 0).Reader(root),
	}
	ent := ForFramework(detect.FrameworkSpringBoot).Extract(ctx, src)

	const file = "src/main/java/com/example/UserController.java"
	assert.Equal(t, []Route{
		{Method: "GET", Path: "/api/users", Handler: "UserController", SourceFile: file},
		{Method: "POST", Path: "/api/users/create", Handler: "UserController", SourceFile: file},
		{Method: "DELETE", Path: "/api/users/legacy", Handler: "UserController", SourceFile: file},
		{Method: "GET", Path: "/api/users/{id}", Handler: "UserController", SourceFile: file},
	}, ent.Routes)

	require.Len(t, ent.Controllers, 1)
	assert.Equal(t, "UserController", ent.Controllers[0].Name)
	assert.Equal(t, []string{"list", "get", "create", "legacy"}, ent.Controllers[0].Methods)

	assert.Equal(t, []Service{{Name: "UserService", File: "src/main/java/com/example/UserService.java"}}, ent.Services)

	require.Len(t, ent.Models, 1)
	assert.Equal(t, "User", ent.Models[0].Name)
	assert.Equal(t, "id, name, tags", ent.Models[0].SchemaSummary)

	assert.Equal(t, "spring:\n  application:\n    name: user-service\nserver:\n  port: 8080", ent.ApplicationConfig)
	assert.Equal(t, "user-service", ent.ApplicationName)
}

func TestSpring_SkipsOversizedFiles(t *testing.T) {
	big := "@RestController\npublic class Big {\n@GetMapping(\"/big\")\npublic void big() {}\n"
	for len(big) <= springMaxFileBytes {
		big += "// padding padding padding padding padding padding\n"
	}
	files, read := memSource(map[string]string{"Big.java": big + "}\n"})

	ent := Spring{}.Extract(context.Background(), Source{Files: files, Read: read})

	assert.Empty(t, ent.Routes)
	assert.Empty(t, ent.Controllers)
}

func TestSpring_PropertiesApplicationName(t *testing.T) {
	files, read := memSource(map[string]string{
		"application.properties": "# app\nspring.application.name=orders\nserver.port=9090\n",
	})

	ent := Spring{}.Extract(context.Background(), Source{Files: files, Read: read})

	assert.Equal(t, "spring.application.name=orders\nserver.port=9090", ent.ApplicationConfig)
	assert.Equal(t, "orders", ent.ApplicationName)
}

func TestSpringRoutes_KotlinRelativePath(t *testing.T) {
	text := `@RestController
@RequestMapping("/api")
class PingController {
    @GetMapping("ping")
    fun ping(): String = "pong"
}
`
	assert.Equal(t, []Route{
		{Method: "GET", Path: "/api/ping", Handler: "PingController", SourceFile: "Ping.kt"},
	}, SpringRoutes(text, "Ping.kt"))
}

func TestSpringRoutes_BasePathOnlyFallsBackToGET(t *testing.T) {
	text := "@Controller\n@RequestMapping(\"/status\")\npublic class StatusController {}\n"

	assert.Equal(t, []Route{
		{Method: "GET", Path: "/status", Handler: "StatusController", SourceFile: "S.java"},
	}, SpringRoutes(text, "S.java"))
}

func TestSpringRoutes_NoControllerAnnotation(t *testing.T) {
	text := "public class Router {\n@GetMapping(\"/x\")\npublic void x() {}\n}\n"

	routes := SpringRoutes(text, "R.java")

	require.Len(t, routes, 1)
	assert.Equal(t, UnknownHandler, routes[0].Handler)
}

func TestForFramework(t *testing.T) {
	assert.Equal(t, "spring", ForFramework(detect.FrameworkSpringBoot).Name())
	assert.Equal(t, "express", ForFramework("Express.js").Name())
	assert.Equal(t, "express", ForFramework(detect.FrameworkUnknown).Name())
}
