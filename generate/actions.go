package generate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"geoflow/config"
	"geoflow/templates"
)

// Placeholder tokens substituted into the workflow templates.
const (
	tokenPrefix = "<PREFIX>"
	tokenPaths  = "<PATHS>"
	tokenCD     = "<CD>"
)

// ErrNoGitRoot is returned when no .git directory exists on the path
// to the filesystem root.
var ErrNoGitRoot = errors.New("git root not found")

// GitRoot walks upward from path looking for a .git marker directory.
func GitRoot(path string) (string, error) {
	current, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for {
		info, err := os.Stat(filepath.Join(current, ".git"))
		if err == nil && info.IsDir() {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("%w: searched from %s", ErrNoGitRoot, path)
		}
		current = parent
	}
}

// FillInAndWriteAction substitutes the placeholder tokens in a workflow
// template and writes the result. The template must contain every token
// and parse as YAML; the result must contain none and still parse as
// YAML. A violation means the template and config have drifted apart
// and is a hard error.
func FillInAndWriteAction(template []byte, dest, subPrefix, subPaths, subCD string) error {
	action := string(template)
	for _, token := range []string{tokenPrefix, tokenPaths, tokenCD} {
		if !strings.Contains(action, token) {
			return fmt.Errorf("workflow template missing token %s", token)
		}
	}
	var doc interface{}
	if err := yaml.Unmarshal(template, &doc); err != nil {
		return fmt.Errorf("workflow template is not valid YAML: %v", err)
	}

	action = strings.ReplaceAll(action, tokenPrefix, subPrefix)
	action = strings.ReplaceAll(action, tokenPaths, subPaths)
	action = strings.ReplaceAll(action, tokenCD, subCD)

	for _, token := range []string{tokenPrefix, tokenPaths, tokenCD} {
		if strings.Contains(action, token) {
			return fmt.Errorf("token %s still present after substitution", token)
		}
	}
	if err := yaml.Unmarshal([]byte(action), &doc); err != nil {
		return fmt.Errorf("substituted workflow is not valid YAML: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(action), 0o644)
}

// CreateGithubActions writes the deploy and test workflows under
// .github/workflows in the git root. A project living in a subdirectory
// of the repo gets path prefixes and a cd command substituted in.
func CreateGithubActions(gitRoot string, isSubdir bool, project string, dp config.DataPaths, overwrite bool, prompter Prompter) error {
	workflowsDir := filepath.Join(gitRoot, ".github", "workflows")

	pathPrefix := ""
	subCD := ""
	if isSubdir {
		pathPrefix = project + "/"
		subCD = "cd " + project
	}

	actions := []struct {
		template []byte
		dest     string
		paths    string
	}{
		{
			template: templates.DeployWorkflow(),
			dest:     filepath.Join(workflowsDir, project+"-deploy.yaml"),
			paths:    pathPrefix + dp.Models + ".dvc",
		},
		{
			template: templates.TestWorkflow(),
			dest:     filepath.Join(workflowsDir, project+"-test.yaml"),
			paths:    pathPrefix + dp.DataDir + "/**",
		},
	}

	for _, a := range actions {
		ok, err := AllowWrite(a.dest, overwrite, prompter)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := FillInAndWriteAction(a.template, a.dest, project+"-", a.paths, subCD); err != nil {
			return err
		}
	}
	return nil
}
