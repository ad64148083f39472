// Command callguard-instrument implements C1-C5: it loads a Go package's
// SSA IR, extracts a per-function library-call automaton, instruments the
// package's source so every library call site emits its assigned marker,
// and writes the resulting policy artifact (and, optionally, a Graphviz
// visualization per function).
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/calltrace/callguard/policy"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -pkg <import path or dir> [flags]\n", os.Args[0])
		flag.PrintDefaults()
	}
	pkgPath := flag.String("pkg", "", "package import path or directory to analyze (required)")
	out := flag.String("out", "policy.yaml", "output path for the policy artifact")
	vizDir := flag.String("viz-dir", "", "output directory for per-function Graphviz visualizations (optional)")
	modulus := flag.Int("m", 200, "dummy-id modulus M")
	modeFlag := flag.String("mode", "dummy", "identifier mode used for edge matching and emitted markers: dummy|unique")
	instrument := flag.Bool("instrument", true, "rewrite source files in place to insert marker-emission calls")
	flag.Parse()

	if *pkgPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	mode, err := policy.ParseMode(*modeFlag)
	if err != nil {
		log.Fatal(err)
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedDeps | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedSyntax,
	}
	pkgs, err := packages.Load(cfg, *pkgPath)
	if err != nil {
		log.Fatalf("callguard-instrument: loading %s: %v", *pkgPath, err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		log.Fatalf("callguard-instrument: %s has type errors", *pkgPath)
	}

	// Only the loaded packages get function bodies; their dependencies are
	// created body-less, so calls into them count as external declarations.
	prog, ssaPkgs := ssautil.Packages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	pretty := policy.NewPrettyResolver()
	extractor := policy.NewExtractor(
		policy.WithModulus(*modulus),
		policy.WithMode(mode),
		policy.WithPrettyResolver(pretty),
	)

	var artifact policy.Artifact
	if modPath, err := resolveModulePath(*pkgPath, pkgs); err != nil {
		log.Printf("callguard-instrument: resolving module path: %v", err)
	} else {
		artifact.ModulePath = modPath
	}
	sitesByFile := make(map[string][]policy.CallSite)

	for i, ssaPkg := range ssaPkgs {
		if ssaPkg == nil {
			log.Printf("callguard-instrument: skipping %s: no SSA package (build failed?)", pkgs[i].PkgPath)
			continue
		}
		graphs, sitesList, err := extractor.ExtractPackage(prog, ssaPkg)
		if err != nil {
			log.Printf("callguard-instrument: extracting %s: %v", pkgs[i].PkgPath, err)
			continue
		}
		for j, g := range graphs {
			sites := sitesList[j]
			fa, err := policy.BuildFunctionArtifact(g, mode, *modulus, sites)
			if err != nil {
				log.Printf("callguard-instrument: building artifact for %s: %v", g.FunctionName, err)
				continue
			}
			artifact.Functions = append(artifact.Functions, fa)

			if *vizDir != "" {
				if _, err := policy.WriteDOT(*vizDir, g); err != nil {
					log.Printf("callguard-instrument: visualizing %s: %v", g.FunctionName, err)
				}
			}
			for _, s := range sites {
				sitesByFile[s.Pos.Filename] = append(sitesByFile[s.Pos.Filename], s)
			}
		}
	}

	raw, err := artifact.Marshal()
	if err != nil {
		log.Fatalf("callguard-instrument: marshaling artifact: %v", err)
	}
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		log.Fatalf("callguard-instrument: writing %s: %v", *out, err)
	}
	log.Printf("callguard-instrument: wrote %d function(s) to %s", len(artifact.Functions), *out)

	if *instrument {
		instrumentSources(pkgs, sitesByFile, mode)
	}
}

// resolveModulePath finds the go.mod governing the analyzed package, so the
// artifact can record which module it was built from. pkgPath may be a
// directory (the common invocation shape) or an import path; when it isn't
// a usable directory, the first loaded package's own source file locates
// one instead.
func resolveModulePath(pkgPath string, pkgs []*packages.Package) (string, error) {
	dir := pkgPath
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		dir = ""
		for _, pkg := range pkgs {
			if len(pkg.GoFiles) > 0 {
				dir = filepath.Dir(pkg.GoFiles[0])
				break
			}
		}
		if dir == "" {
			dir = "."
		}
	}
	return policy.ModulePath(dir)
}

// instrumentSources rewrites every loaded source file that contains at
// least one extracted call site, inserting its marker-emission call and
// writing the file back in place.
func instrumentSources(pkgs []*packages.Package, sitesByFile map[string][]policy.CallSite, mode policy.Mode) {
	ins := policy.NewInstrumenter(mode)
	seen := make(map[*ast.File]bool)
	var fset *token.FileSet

	for _, pkg := range pkgs {
		if pkg.Fset == nil {
			continue
		}
		fset = pkg.Fset
		for _, file := range pkg.Syntax {
			if seen[file] {
				continue
			}
			seen[file] = true
			filename := fset.Position(file.Pos()).Filename
			sites, ok := sitesByFile[filename]
			if !ok {
				continue
			}
			placed := ins.InstrumentFile(fset, file, sites)
			if placed == 0 {
				continue
			}
			f, err := os.Create(filename)
			if err != nil {
				log.Printf("callguard-instrument: rewriting %s: %v", filename, err)
				continue
			}
			if err := format.Node(f, fset, file); err != nil {
				log.Printf("callguard-instrument: formatting %s: %v", filename, err)
			}
			f.Close()
			log.Printf("callguard-instrument: instrumented %d site(s) in %s", placed, filename)
		}
	}
}
