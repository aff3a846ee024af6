package frontend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func analyze(t *testing.T, root string) Module {
	t.Helper()
	ctx := context.Background()
	files := scanner.GetAllFiles(ctx, root, scanner.Options{})
	return Analyze(ctx, root, files, scanner.NewTextCache(64, 0).Reader(root))
}

func TestAnalyze_NextPagesRouter(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"dependencies":{"next":"14.0.0","react":"18.2.0"}}`)
	write(t, root, "pages/index.js", "export default function Home() { return null }\n")
	write(t, root, "pages/about.js", "export default function About() { return null }\n")
	write(t, root, "pages/users/[id].js", "export async function getServerSideProps() { return { props: {} } }\n")
	write(t, root, "pages/blog/[...slug].js", "export default function Post() { return null }\n")
	write(t, root, "pages/_app.js", "export default function App() { return null }\n")
	write(t, root, "pages/api/hello.js", "export default function handler(req, res) {}\n")
	write(t, root, "components/Nav.jsx", "export const Nav = () => null\n")

	m := analyze(t, root)

	assert.Equal(t, "Next.js", m.Framework)
	assert.Equal(t, RenderSSR, m.RenderMode)
	assert.Equal(t, detect.EntryNotDetected, m.EntryPoint)
	assert.Equal(t, []string{"components/Nav.jsx"}, m.Components)
	assert.Equal(t, []string{"pages/_app.js", "pages/about.js", "pages/index.js"}, m.Pages)
	assert.Equal(t, []Route{
		{Type: RouteNextFile, Path: "/about", File: "pages/about.js"},
		{Type: RouteNextFile, Path: "/blog/*slug", File: "pages/blog/[...slug].js", Params: []string{"slug"}},
		{Type: RouteNextFile, Path: "/", File: "pages/index.js"},
		{Type: RouteNextFile, Path: "/users/:id", File: "pages/users/[id].js", Params: []string{"id"}},
	}, m.Routes)
	assert.Equal(t, []string{NoStateDetected}, m.StateManagement)
	assert.Equal(t,
		"1. Entry: Not detected mounts the root component.\n"+
			"2. Render mode: SSR.\n"+
			"3. Routes (4): navigation maps URLs to pages/components.\n"+
			"4. Components (1): reusable UI pieces.\n"+
			"6. User interactions update state and re-render the UI.\n",
		m.ExecutionFlow)
}

func TestNextRoutes_AppRouter(t *testing.T) {
	files := []string{
		"app/(marketing)/about/page.tsx",
		"app/blog/[slug]/page.tsx",
		"app/dashboard/layout.tsx",
		"app/page.tsx",
	}

	routes := nextRoutes(files)

	assert.Equal(t, []Route{
		{Type: RouteNextFile, Path: "/about", File: "app/(marketing)/about/page.tsx"},
		{Type: RouteNextFile, Path: "/blog/:slug", File: "app/blog/[slug]/page.tsx", Params: []string{"slug"}},
		{Type: RouteNextFile, Path: "/", File: "app/page.tsx"},
	}, routes)
}

func TestAnalyze_ReactRouterNestedJSX(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{
  "dependencies": {"react": "18.2.0", "react-router-dom": "6.0.0", "@reduxjs/toolkit": "2.0.0", "react-redux": "9.0.0"},
  "devDependencies": {"vite": "5.0.0"}
}`)
	write(t, root, "src/main.jsx", "import App from './App';\n")
	write(t, root, "src/App.jsx", `import { BrowserRouter, Routes, Route } from 'react-router-dom';
export default function App() {
  return (
    <BrowserRouter>
      <Routes>
        <Route path="/" element={<Layout />}>
          <Route index element={<Home />} />
          <Route path="users" element={<Users />}>
            <Route path=":id" element={<UserDetail />} />
          </Route>
        </Route>
        <Route path="*" element={<NotFound />} />
      </Routes>
    </BrowserRouter>
  );
}
`)

	m := analyze(t, root)

	assert.Equal(t, "React", m.Framework)
	assert.Equal(t, "src/main.jsx", m.EntryPoint)
	assert.Equal(t, RenderSPA, m.RenderMode)
	assert.Equal(t, []string{"Redux", "React-Redux"}, m.StateManagement)
	assert.Equal(t, []Route{
		{Type: RouteReact, Path: "/", File: "src/App.jsx", Component: "Layout"},
		{Type: RouteReact, Path: "/users", File: "src/App.jsx", Component: "Users"},
		{Type: RouteReact, Path: "/users/:id", File: "src/App.jsx", Component: "UserDetail", Params: []string{"id"}},
		{Type: RouteReact, Path: "*", File: "src/App.jsx", Component: "NotFound"},
	}, m.Routes)
	assert.Contains(t, m.ExecutionFlow, "5. State: Redux, React-Redux.\n")
}

func TestAnalyze_VueRouterChildren(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"dependencies":{"vue":"3.4.0","vue-router":"4.0.0","pinia":"2.0.0"},"devDependencies":{"vite":"5.0.0"}}`)
	write(t, root, "src/router/index.js", `import { createRouter, createWebHistory } from 'vue-router';
import Home from '../views/Home.vue';

const routes = [
  { path: '/', component: Home },
  {
    path: '/admin',
    component: () => import('../views/Admin.vue'),
    children: [
      { path: 'users', component: AdminUsers },
      { path: 'users/:id?', component: AdminUser },
    ],
  },
];

export default createRouter({ history: createWebHistory(), routes });
`)

	m := analyze(t, root)

	assert.Equal(t, "Vue.js", m.Framework)
	assert.Equal(t, []string{"Pinia"}, m.StateManagement)
	assert.Equal(t, []Route{
		{Type: RouteVue, Path: "/", File: "src/router/index.js", Component: "Home"},
		{Type: RouteVue, Path: "/admin", File: "src/router/index.js", Component: "Admin"},
		{Type: RouteVue, Path: "/admin/users", File: "src/router/index.js", Component: "AdminUsers"},
		{Type: RouteVue, Path: "/admin/users/:id?", File: "src/router/index.js", Component: "AdminUser", Params: []string{"id"}},
	}, m.Routes)
}

func TestAnalyze_ViteWithoutRouterIsCSR(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"dependencies":{"react":"18.2.0"},"devDependencies":{"vite":"5.0.0"}}`)
	write(t, root, "src/context/Auth.jsx", "export const AuthContext = React.createContext(null);\n")

	m := analyze(t, root)

	assert.Equal(t, RenderCSR, m.RenderMode)
	assert.Equal(t, []string{"Context API"}, m.StateManagement)
	assert.Empty(t, m.Routes)
}

func TestAnalyze_NuxtRenderMode(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"dependencies":{"nuxt":"3.0.0"}}`)

	m := analyze(t, root)

	assert.Equal(t, "Nuxt.js", m.Framework)
	assert.Equal(t, RenderNuxt, m.RenderMode)
}

func TestAnalyze_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nope")

	m := Analyze(context.Background(), root, nil, nil)

	assert.Equal(t, Empty(root), m)
	assert.Equal(t, detect.FrameworkUnknown, m.Framework)
	assert.Equal(t, RenderSPA, m.RenderMode)
}

func TestExecutionFlow_MinimalModule(t *testing.T) {
	m := Module{EntryPoint: "src/main.js", RenderMode: RenderSPA, StateManagement: []string{NoStateDetected}}

	assert.Equal(t,
		"1. Entry: src/main.js mounts the root component.\n"+
			"2. Render mode: SPA.\n"+
			"6. User interactions update state and re-render the UI.\n",
		ExecutionFlow(m))
}

func TestNextSegment(t *testing.T) {
	tests := map[string]string{
		"users":           "users",
		"[id]":            ":id",
		"[...slug]":       "*slug",
		"[[...catchAll]]": "*catchAll",
	}
	for in, want := range tests {
		assert.Equal(t, want, nextSegment(in), in)
	}
}
