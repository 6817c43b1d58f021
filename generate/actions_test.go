package generate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"

	"geoflow/config"
	"geoflow/templates"
)

func TestFillInAndWriteAction(t *testing.T) {
	for _, src := range [][]byte{templates.DeployWorkflow(), templates.TestWorkflow()} {
		template := string(src)
		for _, token := range []string{"<PREFIX>", "<PATHS>", "<CD>"} {
			if !strings.Contains(template, token) {
				t.Fatalf("template missing token %s", token)
			}
		}

		dest := filepath.Join(t.TempDir(), "action.yaml")
		err := FillInAndWriteAction(src, dest, "proj", "data/proj", "cd data/proj")
		if err != nil {
			t.Fatalf("FillInAndWriteAction failed: %v", err)
		}

		content, err := os.ReadFile(dest)
		if err != nil {
			t.Fatal(err)
		}
		action := string(content)

		for _, token := range []string{"<PREFIX>", "<PATHS>", "<CD>"} {
			if strings.Contains(action, token) {
				t.Errorf("token %s survived substitution", token)
			}
		}
		for _, want := range []string{"proj", "data/proj", "cd data/proj"} {
			if !strings.Contains(action, want) {
				t.Errorf("substitution %q missing from output", want)
			}
		}

		var doc interface{}
		if err := yaml.Unmarshal(content, &doc); err != nil {
			t.Errorf("substituted workflow is not valid YAML: %v", err)
		}
	}
}

func TestFillInAndWriteActionRejectsBadTemplate(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "action.yaml")

	// No tokens at all.
	err := FillInAndWriteAction([]byte("name: fixed\n"), dest, "p", "d", "c")
	if err == nil {
		t.Error("template without tokens should be rejected")
	}

	// Not YAML: unterminated flow sequence.
	bad := []byte("<PREFIX> <PATHS> <CD>\nkey: [unclosed")
	if err := FillInAndWriteAction(bad, dest, "p", "d", "c"); err == nil {
		t.Error("non-YAML template should be rejected")
	}
}

func TestCreateGithubActions(t *testing.T) {
	tests := []struct {
		name     string
		isSubdir bool
		wantPath string
		wantCD   string
	}{
		{"root project", false, "data/models.dvc", ""},
		{"subdir project", true, "crop-mask/data/models.dvc", "cd crop-mask"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gitRoot := t.TempDir()
			dp := config.NewDataPaths("data")

			err := CreateGithubActions(gitRoot, tt.isSubdir, "crop-mask", dp, false, refusing(t))
			if err != nil {
				t.Fatalf("CreateGithubActions failed: %v", err)
			}

			deployPath := filepath.Join(gitRoot, ".github", "workflows", "crop-mask-deploy.yaml")
			testPath := filepath.Join(gitRoot, ".github", "workflows", "crop-mask-test.yaml")

			deploy, err := os.ReadFile(deployPath)
			if err != nil {
				t.Fatalf("deploy workflow not written: %v", err)
			}
			if _, err := os.ReadFile(testPath); err != nil {
				t.Fatalf("test workflow not written: %v", err)
			}

			var doc map[interface{}]interface{}
			if err := yaml.Unmarshal(deploy, &doc); err != nil {
				t.Fatalf("deploy workflow is not valid YAML: %v", err)
			}
			if doc["name"] != "crop-mask-deploy" {
				t.Errorf("workflow name = %v, want crop-mask-deploy", doc["name"])
			}
			if !strings.Contains(string(deploy), tt.wantPath) {
				t.Errorf("deploy workflow missing path %q", tt.wantPath)
			}
			if tt.wantCD != "" && !strings.Contains(string(deploy), tt.wantCD) {
				t.Errorf("deploy workflow missing cd command %q", tt.wantCD)
			}
		})
	}
}

func TestCreateGithubActionsRespectsGuard(t *testing.T) {
	gitRoot := t.TempDir()
	workflows := filepath.Join(gitRoot, ".github", "workflows")
	if err := os.MkdirAll(workflows, 0o755); err != nil {
		t.Fatal(err)
	}
	deployPath := filepath.Join(workflows, "p-deploy.yaml")
	if err := os.WriteFile(deployPath, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Decline overwriting the deploy workflow, accept nothing else
	// (the test workflow does not exist so it never prompts).
	err := CreateGithubActions(gitRoot, false, "p", config.NewDataPaths("data"), false, scripted(t, "n"))
	if err != nil {
		t.Fatal(err)
	}

	content, _ := os.ReadFile(deployPath)
	if string(content) != "keep" {
		t.Error("declined workflow was overwritten")
	}
	if _, err := os.Stat(filepath.Join(workflows, "p-test.yaml")); err != nil {
		t.Error("test workflow not written")
	}
}
