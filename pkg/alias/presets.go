package alias

// Framework names accepted by [Presets].
const (
	FrameworkSvelteKit = "sveltekit"
	FrameworkNuxt      = "nuxt"
)

// Presets returns the framework rules for the named frameworks. SvelteKit
// conventions are always included; other frameworks are added when their
// package is declared in a manifest.
func Presets(frameworks ...string) []Rule {
	rules := []Rule{
		{Pattern: "$lib/*", Targets: []string{"src/lib/*"}, Origin: OriginFramework, Extensions: []string{".svelte"}},
		{Pattern: "$app/*", Package: "@sveltejs/kit", Origin: OriginFramework},
		{Pattern: "$env/*", Package: "@sveltejs/kit", Origin: OriginFramework},
	}
	for _, f := range frameworks {
		switch f {
		case FrameworkNuxt:
			rules = append(rules,
				Rule{Pattern: "~~/*", Targets: []string{"*"}, Origin: OriginFramework, Extensions: []string{".vue"}},
				Rule{Pattern: "~/*", Targets: []string{"*"}, Origin: OriginFramework, Extensions: []string{".vue"}},
				Rule{Pattern: "#app", Package: "nuxt", Origin: OriginFramework},
				Rule{Pattern: "#imports", Package: "nuxt", Origin: OriginFramework},
			)
		}
	}
	return rules
}

// FrameworksFor maps declared package names to framework names understood
// by [Presets].
func FrameworksFor(declared func(name string) bool) []string {
	var out []string
	if declared("nuxt") || declared("nuxt3") {
		out = append(out, FrameworkNuxt)
	}
	return out
}
