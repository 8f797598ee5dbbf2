package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const moduleRoot = "propdesk"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a service layer may import besides the standard
// library. Prefixes starting with "/" are relative to the owning service.
type layerRule struct {
	allowed []string
}

var layerRules = map[string]layerRule{
	"domain": {allowed: []string{
		"/domain",
		"golang.org/x/text",
	}},
	"application": {allowed: []string{
		"/application",
		"/domain",
		"/ports",
		moduleRoot + "/contracts",
	}},
	"ports": {allowed: []string{
		"/domain",
		moduleRoot + "/contracts",
	}},
	// Wire DTOs stay free of module types so handlers own the mapping.
	"transport": {},
}

var runtimePrefixes = []string{
	moduleRoot + "/internal/",
	moduleRoot + "/cmd/",
}

func main() {
	root := "contexts"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	violations := collectViolations(root)
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})

	fmt.Printf("%d boundary violations found:\n", len(violations))
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}

		service := fmt.Sprintf("%s/contexts/%s/%s", moduleRoot, parts[1], parts[2])
		violations = append(violations, validateFile(path, normalized, parts[3], service)...)
		return nil
	})

	return violations
}

func validateFile(path string, normalizedPath string, layer string, service string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	report := func(line int, importPath string, rule string) {
		violations = append(violations, violation{
			File:   normalizedPath,
			Line:   line,
			Import: importPath,
			Rule:   rule,
		})
	}

	rule, governed := layerRules[layer]
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line

		if strings.HasPrefix(importPath, moduleRoot+"/contexts/") && !hasPrefix(importPath, service) {
			report(line, importPath, "cross-service imports are forbidden")
		}
		if !governed {
			continue
		}
		if strings.Contains(importPath, "/adapters/") {
			report(line, importPath, layer+" must not import adapters")
		}
		if hasAnyPrefix(importPath, runtimePrefixes) {
			report(line, importPath, layer+" must not import runtime infrastructure")
		}
		if !isStdlib(importPath) && !isAllowed(importPath, rule.resolve(service)) {
			report(line, importPath, layer+" import is outside explicit allowlist")
		}
	}

	return violations
}

func (r layerRule) resolve(service string) []string {
	resolved := make([]string, 0, len(r.allowed))
	for _, prefix := range r.allowed {
		if strings.HasPrefix(prefix, "/") {
			prefix = service + prefix
		}
		resolved = append(resolved, prefix)
	}
	return resolved
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if strings.HasPrefix(importPath, moduleRoot+"/") {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
