package token

// seedEntry is one statically-assigned token: id -> canonical payload.
type seedEntry struct {
	id      uint16
	payload string
}

// seedEquivalence declares that an additional payload resolves to the same
// canonical id as seedEntries[canonicalIndex].payload, without consuming a
// new id of its own -- the semantic equivalence classes of spec section
// 4.4 (".js ≡ .mjs ≡ .cjs", "src ≡ source ≡ sources", etc).
type seedEquivalence struct {
	payload       string
	canonicalID   uint16
}

// Static token ids start at 1; id 0 is reserved to mean "no token" in
// contexts that need a sentinel.
const firstStaticID uint16 = 1

// Extension tokens. The JS and Markdown families each get one canonical id
// per spec section 4.4's worked examples; every other common extension
// gets its own id.
var extensionSeeds = []string{
	"js", "md", "py", "go", "rs", "java", "c", "h", "cpp", "hpp",
	"ts", "tsx", "jsx", "json", "yaml", "yml", "toml", "xml", "html",
	"css", "scss", "sh", "rb", "php", "txt", "csv", "sql", "proto",
	"lock", "cfg", "ini", "conf", "svg", "png", "jpg", "gif", "pdf",
	"zip", "tar", "gz", "gitignore", "dockerfile", "makefile",
}

// Directory-name tokens. "src" is the canonical id for the source-like
// equivalence class resolved in SPEC_FULL section 6 (src, source, sources,
// lib are conflated; "crates" is deliberately excluded).
var dirNameSeeds = []string{
	"src", "test", "tests", "docs", "bin", "cmd", "internal", "pkg",
	"vendor", "node_modules", "dist", "build", "target", "assets",
	"config", "scripts", "examples", "lib",
}

// Permission-string tokens: canonical POSIX octal strings for the most
// common modes. "0755" and "rwxr-xr-x" share a token per spec 4.4; the
// canonical payload stored is the octal form.
var permissionSeeds = []string{
	"0755", "0644", "0600", "0700", "0775", "0664", "0777", "0444",
}

// permissionEquivalents maps the symbolic rwx form to its canonical octal
// payload string, for the seedEquivalence table below.
var permissionEquivalents = map[string]string{
	"rwxr-xr-x": "0755",
	"rw-r--r--": "0644",
	"rw-------": "0600",
	"rwx------": "0700",
	"rwxrwxr-x": "0775",
	"rw-rw-r--": "0664",
	"rwxrwxrwx": "0777",
	"r--r--r--": "0444",
}

// sizeBucketSeeds mirror sizeutil.SizeBucket's output values, so the token
// registry and the size formatter always agree on bucket identity.
var sizeBucketSeeds = []string{
	"0", "(0,1KiB]", "(1KiB,100KiB]", "(100KiB,1MiB]", "(1MiB,100MiB]", "(100MiB,inf)",
}

// jsFamily and mdFamily are the extra equivalence payloads for the two
// families spec 4.4 calls out explicitly by name.
var jsFamily = []string{"mjs", "cjs"}
var mdFamilyExtra = []string{"markdown", "mdown"}
var srcFamilyExtra = []string{"source", "sources"}

var (
	seedEntries       []seedEntry
	seedEquivalences  []seedEquivalence
)

func init() {
	id := firstStaticID

	for _, ext := range extensionSeeds {
		seedEntries = append(seedEntries, seedEntry{id: id, payload: ext})
		id++
	}
	for _, name := range dirNameSeeds {
		seedEntries = append(seedEntries, seedEntry{id: id, payload: name})
		id++
	}
	for _, perm := range permissionSeeds {
		seedEntries = append(seedEntries, seedEntry{id: id, payload: perm})
		id++
	}
	for _, bucket := range sizeBucketSeeds {
		seedEntries = append(seedEntries, seedEntry{id: id, payload: bucket})
		id++
	}

	jsCanonical := findID("js")
	for _, extra := range jsFamily {
		seedEquivalences = append(seedEquivalences, seedEquivalence{payload: extra, canonicalID: jsCanonical})
	}

	mdCanonical := findID("md")
	for _, extra := range mdFamilyExtra {
		seedEquivalences = append(seedEquivalences, seedEquivalence{payload: extra, canonicalID: mdCanonical})
	}

	srcCanonical := findID("src")
	for _, extra := range srcFamilyExtra {
		seedEquivalences = append(seedEquivalences, seedEquivalence{payload: extra, canonicalID: srcCanonical})
	}
	// "lib" is its own static id but also conflated into the source-like
	// equivalence class per SPEC_FULL section 6.
	seedEquivalences = append(seedEquivalences, seedEquivalence{payload: "lib", canonicalID: srcCanonical})

	for symbolic, octal := range permissionEquivalents {
		canonical := findID(octal)
		seedEquivalences = append(seedEquivalences, seedEquivalence{payload: symbolic, canonicalID: canonical})
	}
}

func findID(payload string) uint16 {
	for _, e := range seedEntries {
		if e.payload == payload {
			return e.id
		}
	}
	return 0
}

// seedStatic installs every seedEntry and seedEquivalence into r.
func seedStatic(r *Registry) {
	for _, e := range seedEntries {
		r.registerStatic(e.id, e.payload)
	}
	for _, eq := range seedEquivalences {
		r.registerEquivalence(eq.payload, eq.canonicalID)
	}
}
