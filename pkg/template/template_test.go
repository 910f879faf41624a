package template

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/xsh/pkg/engine"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New(engine.WithGlobals(engine.StdGlobals()))
	require.NoError(t, e.SetConfig(engine.Std()))
	require.NoError(t, e.SetConfig(Plugin()))
	return e
}

func render(t *testing.T, e *engine.Engine, src, typ string, sc engine.Scope) string {
	t.Helper()
	out, err := Render(context.Background(), e, src, typ, sc, false)
	require.NoError(t, err)
	return out
}

func TestJSONWholeStringDirective(t *testing.T) {
	e := newEngine(t)
	out := render(t, e, `{"test": "#xsh 2+2"}`, TypeJSON, nil)
	assert.Equal(t, `{"test": 4}`, out)
}

func TestJSONStringResultStaysQuoted(t *testing.T) {
	e := newEngine(t)
	out := render(t, e, `{"v": "#xsh concat --args a b"}`, TypeJSON, nil)
	assert.Equal(t, `{"v": "a,b"}`, out)
}

func TestJSONContainerResultSerialized(t *testing.T) {
	e := newEngine(t)
	out := render(t, e, `{"xs": "#xsh [1, 2]"}`, TypeJSON, nil)
	assert.Equal(t, `{"xs": [1,2]}`, out)
}

func TestJSONScalars(t *testing.T) {
	e := newEngine(t)
	assert.Equal(t, `{"b": true}`, render(t, e, `{"b": "#xsh true"}`, TypeJSON, nil))
	assert.Equal(t, `{"n": null}`, render(t, e, `{"n": "#xsh null"}`, TypeJSON, nil))
}

func TestJSLineAndInlineDirectives(t *testing.T) {
	e := newEngine(t)
	src := "//#xsh '2*2' >> t\ntest `#xsh $$t`"
	out := render(t, e, src, TypeJS, engine.Scope{})
	// The directive line splices its string result; the inline directive
	// sees the assigned variable.
	assert.Equal(t, "2*2\ntest 4", out)
}

func TestJSLineDirectiveKeepsTerminator(t *testing.T) {
	e := newEngine(t)
	out := render(t, e, "//#xsh 1+1\nrest", TypeJS, nil)
	assert.Equal(t, "2\nrest", out)
}

func TestJSLineCountPreserved(t *testing.T) {
	e := newEngine(t)
	src := "a\n//#xsh 1+1\nb\n//#xsh concat --args x y\nc\n"
	out := render(t, e, src, TypeJS, nil)
	assert.Equal(t,
		strings.Count(src, "\n"),
		strings.Count(out, "\n"))
}

func TestJSNonScalarResultSplicesEmpty(t *testing.T) {
	e := newEngine(t)
	out := render(t, e, "//#xsh [1, 2]\nrest", TypeJS, nil)
	assert.Equal(t, "\nrest", out)
}

func TestJSBlockDirective(t *testing.T) {
	e := newEngine(t)
	src := "//#xsht len $template\npayload here\n///xsht\nafter"
	out := render(t, e, src, TypeJS, engine.Scope{})
	assert.Equal(t,
		strings.Count(src, "\n"),
		strings.Count(out, "\n"))
	assert.True(t, strings.HasPrefix(out, "13"), "got %q", out)
	assert.True(t, strings.HasSuffix(out, "after"))
}

func TestJSBlockRunsBeforeLineDirectives(t *testing.T) {
	e := newEngine(t)
	// The inner line directive must be consumed by the block, not expanded.
	src := "//#xsht len $template\n//#xsh 1+1\n///xsht\n"
	out := render(t, e, src, TypeJS, engine.Scope{})
	assert.True(t, strings.HasPrefix(out, "11"), "got %q", out)
}

func TestJSConstants(t *testing.T) {
	e := newEngine(t)
	e.SetVar("appName", "demo")
	e.SetVar("expr", "3*3")
	out := render(t, e, "__XSH_VAR_APP_NAME__/__XSH_RUN_EXPR__", TypeJS, engine.Scope{})
	assert.Equal(t, "demo/9", out)
}

func TestJSSystemConstant(t *testing.T) {
	e := newEngine(t)
	out := render(t, e, "__XSH_SYSTEM_OS__", TypeJS, nil)
	assert.NotEmpty(t, out)
	assert.NotContains(t, out, "XSH")
}

func TestTypeFiltering(t *testing.T) {
	e := newEngine(t)
	// JS directives are inert in JSON mode and vice versa.
	jsSrc := "//#xsh 1+1\n"
	assert.Equal(t, jsSrc, render(t, e, jsSrc, TypeJSON, nil))
	jsonSrc := `{"v": "#xsh 1+1"}`
	assert.Equal(t, jsonSrc, render(t, e, jsonSrc, TypeJS, nil))
}

func TestRenderAsync(t *testing.T) {
	e := newEngine(t)
	d := RenderAsync(context.Background(), e, `{"v": "#xsh async 21"}`, TypeJSON, nil)
	out, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"v": 21}`, out)
}

func TestRenderAsyncAgreesWithSync(t *testing.T) {
	e := newEngine(t)
	src := "//#xsh (1+2)*3\ninline `#xsh 2+2`"
	syncOut := render(t, e, src, TypeJS, engine.Scope{})
	d := RenderAsync(context.Background(), e, src, TypeJS, engine.Scope{})
	asyncOut, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, syncOut, asyncOut)
}
