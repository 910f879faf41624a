package engine

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// The normalizer is a fixed chain of parse-category rules applied in
// ascending order. Its output contains no quoted strings, no nested brace
// pairs and no bare negative numerics; every such element is addressable by a
// `$`-prefixed placeholder bound in the scope.

// placeholderNS namespaces the deterministic placeholder names. Names are
// content hashes, so normalizing the same source twice yields the same
// string; that keeps the engine's parse cache re-bindable into fresh scopes.
var placeholderNS = uuid.MustParse("9b2f4b5e-0c1d-4a6e-8f3a-5d7c2e9a1b04")

// placeholderName derives the scope key for an extracted fragment. The
// leading "__" keeps placeholders out of the user-chosen namespace.
func placeholderName(kind, body string) string {
	id := uuid.NewSHA1(placeholderNS, []byte(kind+"\x00"+body))
	return "__" + hex.EncodeToString(id[:])[:16]
}

var (
	reDoubleQuoted = regexp.MustCompile(`"((?:\\.|[^"\\])*)"`)
	reSingleQuoted = regexp.MustCompile(`'((?:\\.|[^'\\])*)'`)
	reBackQuoted   = regexp.MustCompile("`((?:\\\\.|[^`\\\\])*)`")
	reEscape       = regexp.MustCompile(`\\(.)`)

	reSpaces    = regexp.MustCompile(`\s+`)
	reTrimMath  = regexp.MustCompile(` *(\|\||&&|\?\?|===|!==|==|!=|>=|<=|[,:><+*/|%]) *`)
	reOpenBrace = regexp.MustCompile(`([\[({]) +`)
	reCloseB    = regexp.MustCompile(` +([\])}])`)

	// Signed numerics are context-sensitive: the minus must sit on an
	// operator or boundary edge, not between two value tokens.
	reSignedNumber = regexp.MustCompile(
		`(^|[(,:\[{|&?=<>+\-*/%; ])(-\d+(?:\.\d+)?)($|[),:\]}|&?=<>+*/%; ])`)

	reInnerGroup = regexp.MustCompile(
		`\(([^()\[\]{}]*)\)|\[([^()\[\]{}]*)\]|\{([^()\[\]{}]*)\}`)
)

// parseRules returns the normalizer chain.
func parseRules() []*Rule {
	return []*Rule{
		{Name: "brackets", Order: -1000, Parse: normalizeBrackets},
		{Name: "trim-borders", Order: -900, Parse: func(_ *Engine, src string, _ Scope) (string, error) {
			return strings.TrimSpace(src), nil
		}},
		{Name: "collapse-spaces", Order: -800, Parse: func(_ *Engine, src string, _ Scope) (string, error) {
			return reSpaces.ReplaceAllString(src, " "), nil
		}},
		{Name: "trim-math", Order: -700, Parse: func(_ *Engine, src string, _ Scope) (string, error) {
			return reTrimMath.ReplaceAllString(src, "$1"), nil
		}},
		{Name: "trim-braces", Order: -600, Parse: func(_ *Engine, src string, _ Scope) (string, error) {
			src = reOpenBrace.ReplaceAllString(src, "$1")
			return reCloseB.ReplaceAllString(src, "$1"), nil
		}},
		{Name: "signed-numbers", Order: -500, Parse: normalizeSignedNumbers},
		{Name: "brace-groups", Order: -400, Parse: normalizeBraceGroups},
	}
}

// normalize runs the parse-category chain. Extracted fragments are bound in
// binds; the caller merges them into the evaluation scope.
func (e *Engine) normalize(src string, binds Scope) (string, error) {
	for _, r := range e.rules.rules(CategoryParse) {
		out, err := r.Parse(e, src, binds)
		if err != nil {
			return "", err
		}
		src = out
	}
	e.log.Debug("normalized",
		zap.String("source", src),
		zap.Int("placeholders", len(binds)))
	return src, nil
}

// normalizeBrackets extracts each quoted literal, strips its escapes, and
// replaces the occurrence with a `$hash` reference to the de-quoted body.
func normalizeBrackets(_ *Engine, src string, binds Scope) (string, error) {
	for _, re := range []*regexp.Regexp{reDoubleQuoted, reSingleQuoted, reBackQuoted} {
		src = re.ReplaceAllStringFunc(src, func(m string) string {
			body := reEscape.ReplaceAllString(m[1:len(m)-1], "$1")
			name := placeholderName("str", body)
			binds[name] = body
			return "$" + name
		})
	}
	return src, nil
}

// normalizeSignedNumbers stores each boundary-adjacent negative numeric in
// the scope and replaces it with a `$hash` reference. Replacement repeats
// because a match consumes its trailing boundary character.
func normalizeSignedNumbers(_ *Engine, src string, binds Scope) (string, error) {
	for {
		replaced := false
		src = reSignedNumber.ReplaceAllStringFunc(src, func(m string) string {
			sub := reSignedNumber.FindStringSubmatch(m)
			lit := sub[2]
			name := placeholderName("num", lit)
			if strings.Contains(lit, ".") {
				f, err := strconv.ParseFloat(lit, 64)
				if err != nil {
					return m
				}
				binds[name] = f
			} else {
				n, err := strconv.ParseInt(lit, 10, 64)
				if err != nil {
					return m
				}
				binds[name] = n
			}
			replaced = true
			return sub[1] + "$" + name + sub[3]
		})
		if !replaced {
			return src, nil
		}
	}
}

// normalizeBraceGroups repeatedly substitutes the innermost `(…)`, `[…]` and
// `{…}` with a `$$hash` reference to the full original substring, braces
// included, until no group remains.
func normalizeBraceGroups(_ *Engine, src string, binds Scope) (string, error) {
	for reInnerGroup.MatchString(src) {
		src = reInnerGroup.ReplaceAllStringFunc(src, func(m string) string {
			name := placeholderName("group", m)
			binds[name] = m
			return "$$" + name
		})
	}
	return src, nil
}
