package project

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const (
	PackageJSON    = "package.json"
	SandboxURLPath = "guppy.codesandboxUrl"
)

func packageJSONPath(dir string) string {
	return filepath.Join(dir, PackageJSON)
}

// ReadSandboxURL returns the URL of the last export of the project,
// or an empty string if the project was never exported.
func ReadSandboxURL(dir string) (string, error) {
	// #nosec
	content, err := os.ReadFile(packageJSONPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}

		return "", fmt.Errorf("error reading %s: %v", PackageJSON, err)
	}

	if !gjson.ValidBytes(content) {
		return "", fmt.Errorf("%s in %s is not valid JSON", PackageJSON, dir)
	}

	return gjson.GetBytes(content, SandboxURLPath).String(), nil
}

//
// WriteSandboxURL stores the URL under guppy.codesandboxUrl.
// The rest of package.json is left as it is, in the same order.
// When the key is new, the file is re-indented so it stays readable.
// A missing or broken package.json is not an error: the file is
// written with only the guppy section, as losing the URL would be worse.
//
func WriteSandboxURL(dir, url string) error {
	path := packageJSONPath(dir)
	content := load(path)
	existed := gjson.GetBytes(content, SandboxURLPath).Exists()

	updated, err := sjson.SetBytes(content, SandboxURLPath, url)
	if err != nil {
		return fmt.Errorf("error updating %s: %v", PackageJSON, err)
	}

	if !existed {
		updated = pretty.PrettyOptions(updated, &pretty.Options{Width: 80, Indent: "  "})
	}

	// #nosec
	err = os.WriteFile(path, updated, 0644)
	if err != nil {
		return fmt.Errorf("error writing %s: %v", PackageJSON, err)
	}

	log.Debugf("Stored %s in %s", url, path)
	return nil
}

func load(path string) []byte {
	// #nosec
	content, err := os.ReadFile(path)
	if err != nil {
		log.Debugf("Could not read %s: %v", path, err)
		return []byte("{}")
	}

	if !gjson.ValidBytes(content) || !gjson.ParseBytes(content).IsObject() {
		log.Warnf("Ignoring invalid %s", path)
		return []byte("{}")
	}

	return content
}
