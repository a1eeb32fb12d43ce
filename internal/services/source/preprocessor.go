package source

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
)

const maxIncludeDepth = 32

var (
	includeRe = regexp.MustCompile(`^\s*#include\s+"([^"]+)"`)
	defineRe  = regexp.MustCompile(`^\s*#define\s+([A-Za-z_][A-Za-z0-9_]*)(?:[ \t]+(.*))?$`)
	undefRe   = regexp.MustCompile(`^\s*#undef\s+([A-Za-z_][A-Za-z0-9_]*)`)
	ifdefRe   = regexp.MustCompile(`^\s*#ifdef\s+([A-Za-z_][A-Za-z0-9_]*)`)
	ifndefRe  = regexp.MustCompile(`^\s*#ifndef\s+([A-Za-z_][A-Za-z0-9_]*)`)
	ifRe      = regexp.MustCompile(`^\s*#if\s+(.+)$`)
	elseRe    = regexp.MustCompile(`^\s*#else\b`)
	endifRe   = regexp.MustCompile(`^\s*#endif\b`)
	definedRe = regexp.MustCompile(`(!?)\s*defined\s*\(\s*([A-Za-z_][A-Za-z0-9_]*)\s*\)`)
	identRe   = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

// ProcessResult is the output of one preprocessor run.
type ProcessResult struct {
	// Source is the fully expanded text handed to the backend.
	Source string
	// Includes lists every transitively included file path, sorted, for
	// dependency tracking.
	Includes []string
	// Defines is the final macro table after in-source #define directives.
	Defines map[string]string
}

// Preprocessor expands #include directives, applies #define/#undef, strips
// false conditional branches, and substitutes macros on identifier
// boundaries. It is a line-level C-style preprocessor, not a language front
// end: #if expressions are limited to defined()/!defined(), bare names, and
// their && / || combinations.
type Preprocessor struct {
	resolver *Resolver
	logger   arbor.ILogger
}

// NewPreprocessor creates a preprocessor over the given resolver.
func NewPreprocessor(resolver *Resolver, logger arbor.ILogger) *Preprocessor {
	return &Preprocessor{resolver: resolver, logger: logger}
}

// condState tracks one open conditional block.
type condState struct {
	active    bool // this branch is emitting
	taken     bool // some branch of this block already emitted
	parentOff bool // an enclosing block suppressed everything
}

type expansion struct {
	macros   map[string]string
	includes map[string]struct{}
	out      strings.Builder
	conds    []condState
}

// Process expands the root file with the supplied initial macro table
// (variant defines merged over global defines). The input map is not
// mutated.
func (p *Preprocessor) Process(rootPath string, macros map[string]string) (*ProcessResult, error) {
	data, err := p.resolver.ReadFile(rootPath)
	if err != nil {
		return nil, err
	}

	exp := &expansion{
		macros:   make(map[string]string, len(macros)),
		includes: make(map[string]struct{}),
	}
	for name, value := range macros {
		exp.macros[name] = value
	}

	visiting := map[string]struct{}{filepath.Clean(rootPath): {}}
	if err := p.expand(exp, string(data), filepath.Dir(rootPath), visiting, 0); err != nil {
		return nil, err
	}
	if len(exp.conds) != 0 {
		return nil, fmt.Errorf("unterminated conditional block in %s", rootPath)
	}

	includes := make([]string, 0, len(exp.includes))
	for path := range exp.includes {
		includes = append(includes, path)
	}
	sort.Strings(includes)

	return &ProcessResult{
		Source:   exp.out.String(),
		Includes: includes,
		Defines:  exp.macros,
	}, nil
}

func (p *Preprocessor) expand(exp *expansion, text string, fromDir string, visiting map[string]struct{}, depth int) error {
	if depth > maxIncludeDepth {
		return fmt.Errorf("include depth exceeds %d (include cycle?)", maxIncludeDepth)
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case ifdefRe.MatchString(line):
			name := ifdefRe.FindStringSubmatch(line)[1]
			p.pushCond(exp, p.defined(exp, name))
		case ifndefRe.MatchString(line):
			name := ifndefRe.FindStringSubmatch(line)[1]
			p.pushCond(exp, !p.defined(exp, name))
		case ifRe.MatchString(line):
			expr := ifRe.FindStringSubmatch(line)[1]
			p.pushCond(exp, p.evalCondition(exp, expr))
		case elseRe.MatchString(line):
			if len(exp.conds) == 0 {
				return fmt.Errorf("#else without matching #if")
			}
			top := &exp.conds[len(exp.conds)-1]
			top.active = !top.parentOff && !top.taken
			if top.active {
				top.taken = true
			}
		case endifRe.MatchString(line):
			if len(exp.conds) == 0 {
				return fmt.Errorf("#endif without matching #if")
			}
			exp.conds = exp.conds[:len(exp.conds)-1]
		case !p.emitting(exp):
			// suppressed branch: skip everything except the conditional
			// directives handled above
		case includeRe.MatchString(line):
			name := includeRe.FindStringSubmatch(line)[1]
			resolved, data, err := p.resolver.Resolve(name, fromDir)
			if err != nil {
				return err
			}
			if _, cycle := visiting[resolved]; cycle {
				p.logger.Debug().Str("path", resolved).Msg("Skipping already-included file")
				continue
			}
			visiting[resolved] = struct{}{}
			exp.includes[resolved] = struct{}{}
			if err := p.expand(exp, string(data), filepath.Dir(resolved), visiting, depth+1); err != nil {
				return err
			}
		case defineRe.MatchString(line):
			m := defineRe.FindStringSubmatch(line)
			value := strings.TrimSpace(m[2])
			if value == "" {
				value = "1"
			}
			exp.macros[m[1]] = value
		case undefRe.MatchString(line):
			delete(exp.macros, undefRe.FindStringSubmatch(line)[1])
		default:
			exp.out.WriteString(p.substitute(exp, line))
			exp.out.WriteString("\n")
		}
	}
	return nil
}

func (p *Preprocessor) pushCond(exp *expansion, value bool) {
	parentOff := !p.emitting(exp)
	active := value && !parentOff
	exp.conds = append(exp.conds, condState{active: active, taken: active, parentOff: parentOff})
}

func (p *Preprocessor) emitting(exp *expansion) bool {
	for _, c := range exp.conds {
		if !c.active {
			return false
		}
	}
	return true
}

func (p *Preprocessor) defined(exp *expansion, name string) bool {
	_, ok := exp.macros[name]
	return ok
}

// evalCondition evaluates a #if expression. Unsupported expressions evaluate
// false with a warning.
func (p *Preprocessor) evalCondition(exp *expansion, expr string) bool {
	expr = strings.TrimSpace(expr)

	if strings.Contains(expr, "||") {
		for _, part := range strings.Split(expr, "||") {
			if p.evalCondition(exp, part) {
				return true
			}
		}
		return false
	}
	if strings.Contains(expr, "&&") {
		for _, part := range strings.Split(expr, "&&") {
			if !p.evalCondition(exp, part) {
				return false
			}
		}
		return true
	}

	if m := definedRe.FindStringSubmatch(expr); m != nil && expr == strings.TrimSpace(m[0]) {
		result := p.defined(exp, m[2])
		if m[1] == "!" {
			result = !result
		}
		return result
	}

	if identRe.FindString(expr) == expr {
		value, ok := exp.macros[expr]
		return ok && value != "0"
	}

	p.logger.Warn().Str("expr", expr).Msg("Unsupported #if expression, treating as false")
	return false
}

// substitute replaces defined macro names on identifier boundaries.
func (p *Preprocessor) substitute(exp *expansion, line string) string {
	if len(exp.macros) == 0 {
		return line
	}
	return identRe.ReplaceAllStringFunc(line, func(ident string) string {
		if value, ok := exp.macros[ident]; ok {
			return value
		}
		return ident
	})
}
