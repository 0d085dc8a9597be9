package switcher

import "strings"

// KnownProducts are the lowercase identifiers JetBrains uses in config directory
// and process names.
var KnownProducts = []string{
	"pycharm",
	"idea",
	"goland",
	"webstorm",
	"phpstorm",
	"clion",
	"rubymine",
	"datagrip",
	"rider",
	"dataspell",
	"rustrover",
	"aqua",
	"writerside",
}

// IdentifyProduct finds the product identifier contained in a config directory name.
// Matching ignores case and the longest identifier wins, so "IntelliJIdea2024.1" is "idea".
func IdentifyProduct(dirName string, products []string) (string, bool) {
	name := strings.ToLower(dirName)
	best := ""
	for _, p := range products {
		id := strings.ToLower(strings.TrimSpace(p))
		if id == "" || !strings.Contains(name, id) {
			continue
		}
		if len(id) > len(best) {
			best = id
		}
	}
	return best, best != ""
}
