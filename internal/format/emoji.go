package format

import "github.com/8b-is/smart-tree/internal/node"

// emojiByExtension covers the extensions common enough in real trees to be
// worth a visual hint; anything else falls back to a generic marker. This
// is deliberately a small, curated set rather than an exhaustive language
// registry -- the Classic formatter is decoration, not classification.
var emojiByExtension = map[string]string{
	"go":   "🐹",
	"rs":   "🦀",
	"py":   "🐍",
	"js":   "📜",
	"ts":   "📘",
	"json": "📋",
	"md":   "📝",
	"toml": "⚙️",
	"yaml": "⚙️",
	"yml":  "⚙️",
	"lock": "🔒",
	"png":  "🖼️",
	"jpg":  "🖼️",
	"jpeg": "🖼️",
	"gif":  "🖼️",
	"svg":  "🖼️",
	"sh":   "🐚",
	"git":  "🔧",
}

const (
	emojiDirectory = "📁"
	emojiSymlink   = "🔗"
	emojiFile      = "📄"
)

// nodeEmoji returns the decoration for n, or "" if opts disable emoji.
func nodeEmoji(n node.Node, noEmoji bool) string {
	if noEmoji {
		return ""
	}
	switch n.Kind {
	case node.Directory:
		return emojiDirectory
	case node.Symlink:
		return emojiSymlink
	default:
		if e, ok := emojiByExtension[n.Extension()]; ok {
			return e
		}
		return emojiFile
	}
}
