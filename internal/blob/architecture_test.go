package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestInfraDriversOnlyBehindFacades keeps the service and the CLI on the
// Store and Recorder interfaces: each infra driver tree may only be imported
// by its facade package.
func TestInfraDriversOnlyBehindFacades(t *testing.T) {
	boundaries := map[string]string{
		"gedtree/internal/infra/blob":  "gedtree/internal/blob",
		"gedtree/internal/infra/audit": "gedtree/internal/audit",
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "gedtree/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var violations []string
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			for infra, facade := range boundaries {
				if !underPrefix(importPath, infra) {
					continue
				}
				if underPrefix(pkg.PkgPath, facade) || underPrefix(pkg.PkgPath, infra) {
					continue
				}
				violations = append(violations, pkg.PkgPath+": "+importPath)
			}
		}
	}
	if len(violations) > 0 {
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden infra import: %s", v)
		}
		t.Fatalf("found %d forbidden infra imports", len(violations))
	}
}

func underPrefix(importPath, prefix string) bool {
	return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
}
