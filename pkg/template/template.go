// Package template splices evaluated xsh results into host text: comment
// directives in JS-like sources and `"#xsh …"` strings in JSON documents.
package template

import (
	"context"
	"encoding/json"
	"regexp"
	"runtime"
	"strings"

	"github.com/fyrsmithlabs/xsh/pkg/engine"
	"github.com/fyrsmithlabs/xsh/pkg/value"
)

// File types understood by the built-in rules.
const (
	TypeJS   = "js"
	TypeJSON = "json"
)

// Plugin returns the template rule set for installation via SetConfig.
func Plugin() engine.Config {
	return engine.Config{
		Rules: map[engine.Category][]*engine.Rule{
			engine.CategoryTemplate: {
				{Name: "js-block", Order: -10000, Types: []string{TypeJS}, Template: templateJSBlock},
				{Name: "js-line", Order: -100, Types: []string{TypeJS}, Template: templateJSLine},
				{Name: "js-inline", Order: -50, Types: []string{TypeJS}, Template: templateJSInline},
				{Name: "js-constants", Order: 0, Types: []string{TypeJS}, Template: templateJSConstants},
				{Name: "json-string", Order: -100, Types: []string{TypeJSON}, Template: templateJSONString},
			},
		},
	}
}

// Render runs the template rules applicable to the file type over source.
// The async flag evaluates directives asynchronously; Render still blocks
// until the rewritten text is complete (use RenderAsync for a deferred
// result).
func Render(ctx context.Context, e *engine.Engine, source, typ string, sc engine.Scope, async bool) (string, error) {
	if sc == nil {
		sc = engine.Scope{}
	}
	for _, r := range e.RulesForType(engine.CategoryTemplate, typ) {
		out, err := r.Template(ctx, &engine.TemplateInput{
			Engine: e,
			Scope:  sc,
			Source: source,
			Type:   typ,
			Rule:   r,
			Await:  async,
		})
		if err != nil {
			return "", err
		}
		source = out
	}
	return source, nil
}

// RenderAsync renders in a deferred result.
func RenderAsync(ctx context.Context, e *engine.Engine, source, typ string, sc engine.Scope) *value.Deferred {
	return value.Defer(func() (any, error) {
		out, err := Render(ctx, e, source, typ, sc, true)
		if err != nil {
			return value.Undefined, err
		}
		return out, nil
	})
}

var (
	reJSBlock = regexp.MustCompile(`(?ms)^[ \t]*//#xsht[ \t]*([^\n]*)\n(.*?)^[ \t]*///xsht[ \t]*$`)
	reJSLine  = regexp.MustCompile(`(?m)^[ \t]*//#xsh[ \t]+(.*?)(\r?\n|$)`)
	reJSInl   = regexp.MustCompile("`#xsh ([^`\n]*)`")
	reJSConst = regexp.MustCompile(`__XSH_(VAR|RUN|SYSTEM)_([A-Za-z0-9_]+?)__`)
	reJSONStr = regexp.MustCompile(`"#xsh ((?:\\.|[^"\\])*)"`)
)

// evalDirective parses one directive command in the template scope.
func evalDirective(ctx context.Context, in *engine.TemplateInput, command string) (any, error) {
	v, err := in.Engine.Parse(ctx, command, in.Scope, nil, in.Await)
	if err != nil {
		return value.Undefined, err
	}
	if in.Await {
		return value.Await(ctx, v)
	}
	return v, nil
}

// formatJS renders a directive result for splicing into JS-like source:
// numbers and strings become their literal text, anything else the empty
// string.
func formatJS(v any) string {
	switch v.(type) {
	case int64, float64, string:
		return value.ToString(v)
	default:
		return ""
	}
}

// templateJSBlock expands `//#xsht <command> … ///xsht` regions. The block
// body is stashed in the scope as `template` with the block's offset, then
// the command is evaluated; the output keeps the region's line count.
func templateJSBlock(ctx context.Context, in *engine.TemplateInput) (string, error) {
	var firstErr error
	src := in.Source
	out := replaceAllSubmatchIndex(reJSBlock, src, func(m []int) string {
		command := src[m[2]:m[3]]
		body := src[m[4]:m[5]]
		in.Scope[engine.ScopeTemplate] = body
		in.Scope[engine.ScopeOffset] = int64(m[0])
		in.Scope[engine.ScopeTemplateOffset] = int64(m[4])
		v, err := evalDirective(ctx, in, command)
		delete(in.Scope, engine.ScopeTemplate)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return src[m[0]:m[1]]
		}
		matched := src[m[0]:m[1]]
		return formatJS(v) + strings.Repeat("\n", strings.Count(matched, "\n"))
	})
	return out, firstErr
}

// templateJSLine expands `//#xsh <command>` line directives, preserving the
// captured line terminator.
func templateJSLine(ctx context.Context, in *engine.TemplateInput) (string, error) {
	var firstErr error
	src := in.Source
	out := replaceAllSubmatchIndex(reJSLine, src, func(m []int) string {
		command := src[m[2]:m[3]]
		terminator := src[m[4]:m[5]]
		in.Scope[engine.ScopeOffset] = int64(m[0])
		v, err := evalDirective(ctx, in, command)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return src[m[0]:m[1]]
		}
		return formatJS(v) + terminator
	})
	return out, firstErr
}

// templateJSInline expands `` `#xsh …` `` in place.
func templateJSInline(ctx context.Context, in *engine.TemplateInput) (string, error) {
	var firstErr error
	src := in.Source
	out := replaceAllSubmatchIndex(reJSInl, src, func(m []int) string {
		command := src[m[2]:m[3]]
		v, err := evalDirective(ctx, in, command)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return src[m[0]:m[1]]
		}
		return formatJS(v)
	})
	return out, firstErr
}

// systemVars are the names reachable through __XSH_SYSTEM_*__.
var systemVars = map[string]any{
	"os":   runtime.GOOS,
	"arch": runtime.GOARCH,
}

// templateJSConstants expands __XSH_VAR_<NAME>__, __XSH_RUN_<NAME>__ and
// __XSH_SYSTEM_<NAME>__ markers.
func templateJSConstants(ctx context.Context, in *engine.TemplateInput) (string, error) {
	var firstErr error
	src := in.Source
	out := replaceAllSubmatchIndex(reJSConst, src, func(m []int) string {
		kind := src[m[2]:m[3]]
		name := constantName(src[m[4]:m[5]])
		var v any
		switch kind {
		case "VAR":
			v = in.Engine.GetVar(name, in.Scope)
		case "RUN":
			forced, err := evalDirective(ctx, in, "$$"+name)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return src[m[0]:m[1]]
			}
			v = forced
		case "SYSTEM":
			sys, ok := systemVars[name]
			if !ok {
				sys = value.Undefined
			}
			v = sys
		}
		return formatJS(v)
	})
	return out, firstErr
}

// constantName lower-cases a name that started with an underscore and
// snake→camel-cases any other name.
func constantName(name string) string {
	if strings.HasPrefix(name, "_") {
		return strings.ToLower(name)
	}
	parts := strings.Split(strings.ToLower(name), "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// templateJSONString expands whole-string `"#xsh <command>"` directives,
// keeping the document valid JSON: strings are re-escaped and re-quoted,
// containers are serialized, scalars are inlined.
func templateJSONString(ctx context.Context, in *engine.TemplateInput) (string, error) {
	var firstErr error
	src := in.Source
	out := replaceAllSubmatchIndex(reJSONStr, src, func(m []int) string {
		var command string
		// The body is a JSON string fragment; unquote it through the decoder.
		if err := json.Unmarshal([]byte(`"`+src[m[2]:m[3]]+`"`), &command); err != nil {
			return src[m[0]:m[1]]
		}
		v, err := evalDirective(ctx, in, command)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return src[m[0]:m[1]]
		}
		return formatJSON(v)
	})
	return out, firstErr
}

func formatJSON(v any) string {
	switch t := v.(type) {
	case string:
		data, err := json.Marshal(t)
		if err != nil {
			return `""`
		}
		return string(data)
	case []any, map[string]any:
		data, err := json.Marshal(value.Export(t))
		if err != nil {
			return "null"
		}
		return string(data)
	case bool, int64, float64:
		return value.ToString(t)
	default:
		return "null"
	}
}

// replaceAllSubmatchIndex is ReplaceAllStringFunc with submatch indices.
func replaceAllSubmatchIndex(re *regexp.Regexp, src string, repl func(m []int) string) string {
	matches := re.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(src[last:m[0]])
		b.WriteString(repl(m))
		last = m[1]
	}
	b.WriteString(src[last:])
	return b.String()
}
