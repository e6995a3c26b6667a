package solidity

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/syntax"
	"github.com/drips-network/gardener/pkg/diag"
	"github.com/drips-network/gardener/pkg/errors"
)

func newProject(t *testing.T, files map[string]string, opts deps.Options) *deps.Project {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		opts.Files = append(opts.Files, name)
	}
	opts.Root = root
	opts.Diags = diag.NewCollector()
	return deps.NewProject(opts)
}

const foundryToml = `[profile.default]
src = "contracts"
out = "out"
remappings = ["solady/=lib/solady/src/"]

[dependencies]
forge-std = { version = "1.9.2", git = "https://github.com/foundry-rs/forge-std.git", tag = "v1.9.2" }
`

const remappingsTxt = `# vendored
@openzeppelin/=lib/openzeppelin-contracts/
forge-std/=lib/forge-std/src/
local/=contracts/local/
malformed
`

const erc20Source = `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.20;

import "@openzeppelin/contracts/token/ERC20/ERC20.sol";
import {Test, console as log} from "forge-std/Test.sol";
import * as Lib from "solady/utils/LibString.sol";
import './util/Math.sol';
import "../Base.sol";
import "local/Thing.sol";
import "hardhat/console.sol" as console;
/* import "commented/Out.sol"; */
// import "also/Out.sol";

contract Token {
    string constant s = "import \"fake/x.sol\";";
}
`

func TestParseManifests(t *testing.T) {
	h := New()
	m, err := h.ParseManifest("foundry.toml", []byte(foundryToml))
	if err != nil {
		t.Fatalf("foundry.toml: %v", err)
	}
	want := []deps.Package{
		{Name: "forge-std", Version: "1.9.2", Ecosystem: deps.Solidity, SourceURL: "https://github.com/foundry-rs/forge-std.git"},
		{Name: "solady", Ecosystem: deps.Solidity},
	}
	if !reflect.DeepEqual(m.Packages, want) {
		t.Errorf("foundry packages = %+v, want %+v", m.Packages, want)
	}

	m, err = h.ParseManifest("remappings.txt", []byte(remappingsTxt))
	if err != nil {
		t.Fatalf("remappings.txt: %v", err)
	}
	var got []string
	for _, p := range m.Packages {
		got = append(got, p.Name)
	}
	if want := []string{"@openzeppelin/contracts", "forge-std"}; !reflect.DeepEqual(got, want) {
		t.Errorf("remapping packages = %v, want %v", got, want)
	}

	if _, err := h.ParseManifest("foundry.toml", []byte("[profile\n")); err == nil {
		t.Error("expected error for broken foundry.toml")
	}
}

func TestFoundryRenamedDependency(t *testing.T) {
	data := `[dependencies]
openzeppelin-contracts = { git = "git@github.com:OpenZeppelin/openzeppelin-contracts.git", rev = "abc123" }
v4-core = { git = "https://github.com/Uniswap/v4-core" }
`
	m, err := ParseFoundryToml("foundry.toml", []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Packages) != 2 {
		t.Fatalf("got %d packages", len(m.Packages))
	}
	oz := m.Packages[0]
	if oz.Name != "@openzeppelin/contracts" || oz.Version != "abc123" {
		t.Errorf("oz = %+v", oz)
	}
	if !reflect.DeepEqual(oz.ImportNames, []string{"openzeppelin-contracts"}) {
		t.Errorf("oz ImportNames = %v", oz.ImportNames)
	}
	if m.Packages[1].Name != "v4-core" || m.Packages[1].ImportNames != nil {
		t.Errorf("v4-core = %+v", m.Packages[1])
	}
}

func TestPackageName(t *testing.T) {
	tests := map[string]string{
		"@openzeppelin/contracts/token/ERC20/ERC20.sol": "@openzeppelin/contracts",
		"@openzeppelin/":                                "@openzeppelin/contracts",
		"forge-std/Test.sol":                            "forge-std",
		"lib/solmate/src/tokens/ERC20.sol":              "solmate",
		"openzeppelin-contracts/token/ERC20.sol":        "@openzeppelin/contracts",
		"./Local.sol":                                   "",
		"":                                              "",
	}
	for spec, want := range tests {
		if got := PackageName(spec); got != want {
			t.Errorf("PackageName(%q) = %q, want %q", spec, got, want)
		}
	}
}

func TestComponent(t *testing.T) {
	tests := []struct {
		d    directive
		pkg  string
		want string
	}{
		{directive{path: "@openzeppelin/contracts/token/ERC20/ERC20.sol"}, "@openzeppelin/contracts", "@openzeppelin/contracts.token/ERC20/ERC20"},
		{directive{path: "solmate/src/tokens/ERC20.sol", symbols: []string{"ERC20", "ERC20"}}, "solmate", "solmate.tokens/ERC20 { ERC20 }"},
		{directive{path: "lib/solmate/src/utils/X.sol"}, "solmate", "solmate.src/utils/X"},
		{directive{path: "hardhat/console.sol", alias: "c"}, "hardhat", "hardhat.console.sol as c"},
		{directive{path: "x/Y.sol", alias: "A", symbols: []string{"B"}}, "x", "x.Y { B } as A"},
	}
	for _, tt := range tests {
		if got := tt.d.component(tt.pkg); got != tt.want {
			t.Errorf("component(%+v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	files := map[string]string{
		"foundry.toml":                       foundryToml,
		"remappings.txt":                     remappingsTxt,
		"contracts/Token.sol":                erc20Source,
		"contracts/Base.sol":                 "contract Base {}",
		"contracts/util/Math.sol":            "library Math {}",
		"contracts/local/Thing.sol":          "contract Thing {}",
		"lib/solady/src/utils/LibString.sol": "library LibString {}",
	}
	subs := map[string]string{
		"lib/forge-std":              "https://github.com/foundry-rs/forge-std",
		"lib/openzeppelin-contracts": "https://github.com/OpenZeppelin/openzeppelin-contracts",
		"lib/solady":                 "https://github.com/Vectorized/solady",
	}
	p := newProject(t, files, deps.Options{Submodules: subs})
	h := New()
	for _, name := range []string{"foundry.toml", "remappings.txt"} {
		m, err := h.ParseManifest(name, []byte(files[name]))
		if err != nil {
			t.Fatal(err)
		}
		p.AddManifest(m)
	}
	p.Finalize()
	if err := h.Prepare(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if h.SourceDir() != "contracts" {
		t.Errorf("SourceDir = %q", h.SourceDir())
	}

	facts, err := h.Extract(context.Background(), p, "contracts/Token.sol", []byte(erc20Source))
	if err != nil {
		t.Fatal(err)
	}
	wantLocal := []string{
		"lib/solady/src/utils/LibString.sol",
		"contracts/util/Math.sol",
		"contracts/Base.sol",
		"contracts/local/Thing.sol",
	}
	if !reflect.DeepEqual(facts.Local, wantLocal) {
		t.Errorf("Local = %v, want %v", facts.Local, wantLocal)
	}
	wantImports := []string{"@openzeppelin/contracts", "forge-std", "solady", "hardhat"}
	if !reflect.DeepEqual(facts.Imports, wantImports) {
		t.Errorf("Imports = %v, want %v", facts.Imports, wantImports)
	}
	var comps []string
	for _, c := range facts.Components {
		comps = append(comps, c.Name)
	}
	wantComps := []string{
		"@openzeppelin/contracts.token/ERC20/ERC20",
		"forge-std.Test { Test, console as log }",
		"solady.utils/LibString.sol as Lib",
		"hardhat.console.sol as console",
	}
	if !reflect.DeepEqual(comps, wantComps) {
		t.Errorf("Components = %v, want %v", comps, wantComps)
	}

	for name, want := range map[string]string{
		"@openzeppelin/contracts": "lib/openzeppelin-contracts",
		"forge-std":               "lib/forge-std",
		"solady":                  "lib/solady",
	} {
		pkg, ok := p.Package(deps.Solidity, name)
		if !ok {
			t.Errorf("%s not declared", name)
			continue
		}
		if pkg.SubmodulePath != want || pkg.SubmoduleURL != subs[want] {
			t.Errorf("%s submodule = %q %q", name, pkg.SubmodulePath, pkg.SubmoduleURL)
		}
	}
}

func TestPrepareHelperUnavailable(t *testing.T) {
	p := newProject(t, map[string]string{
		"hardhat.config.js":   "module.exports = {}",
		"contracts/Token.sol": "contract Token {}",
	}, deps.Options{RemappingHelper: []string{"gardener-no-such-helper-binary"}})
	p.Finalize()
	if err := New().Prepare(context.Background(), p); err != nil {
		t.Fatalf("Prepare returned %v", err)
	}
	if n := p.Diags.Count(diag.HelperUnavailable); n != 1 {
		t.Errorf("HelperUnavailable diagnostics = %d, want 1", n)
	}
}

func TestDecodeHelperOutput(t *testing.T) {
	out := `{"@oz/": "/repo/node_modules/@oz/", "evil/": "/etc/", "rel/": "lib/rel"}`
	rs, err := decodeHelperOutput([]byte(out), "/repo")
	if err != nil {
		t.Fatal(err)
	}
	want := []Remapping{
		{Prefix: "@oz/", Target: "node_modules/@oz/", Dir: "."},
		{Prefix: "rel/", Target: "lib/rel", Dir: "."},
	}
	if !reflect.DeepEqual(rs, want) {
		t.Errorf("remappings = %+v, want %+v", rs, want)
	}
	if _, err := decodeHelperOutput([]byte("not json"), "/repo"); err == nil {
		t.Error("expected error for invalid output")
	}
}

func TestParseImportsSkipsCommentsAndStrings(t *testing.T) {
	src := []byte(`/* import "a.sol"; */
contract C { string s = 'import "b.sol";'; }
import "c.sol";
import {X as Y, Z} from "d.sol";
import W from "e.sol";
`)
	tree, err := syntax.Parse(context.Background(), syntax.Solidity, src)
	if err != nil {
		t.Fatal(err)
	}
	defer tree.Close()

	want := []directive{
		{path: "c.sol"},
		{path: "d.sol", symbols: []string{"X as Y", "Z"}},
		{path: "e.sol", symbols: []string{"W"}},
	}
	if got := parseImports(tree); !reflect.DeepEqual(got, want) {
		t.Errorf("imports = %+v, want %+v", got, want)
	}
}

func TestHardhatRemappingsEmptyCommand(t *testing.T) {
	for _, command := range [][]string{nil, {}, {""}} {
		rs, err := hardhatRemappings(context.Background(), command, t.TempDir())
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("hardhatRemappings(%q) error = %v, want INVALID_INPUT", command, err)
		}
		if rs != nil {
			t.Errorf("hardhatRemappings(%q) = %v, want nil", command, rs)
		}
	}
}
