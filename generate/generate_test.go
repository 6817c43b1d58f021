package generate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"geoflow/config"
)

// scripted returns a Prompter that replays the given answers in order.
func scripted(t *testing.T, answers ...string) Prompter {
	i := 0
	return PromptFunc(func(prompt string) (string, error) {
		if i >= len(answers) {
			t.Fatalf("unexpected prompt: %q", prompt)
		}
		answer := answers[i]
		i++
		return answer, nil
	})
}

// refusing returns a Prompter that fails the test when consulted.
func refusing(t *testing.T) Prompter {
	return PromptFunc(func(prompt string) (string, error) {
		t.Fatalf("prompter consulted unexpectedly: %q", prompt)
		return "", nil
	})
}

func TestAllowWrite(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "existing")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("non-existent path never prompts", func(t *testing.T) {
		ok, err := AllowWrite("non-existent/file/path", false, refusing(t))
		if err != nil || !ok {
			t.Errorf("got (%v, %v), want (true, nil)", ok, err)
		}
	})

	t.Run("overwrite never prompts", func(t *testing.T) {
		ok, err := AllowWrite(existing, true, refusing(t))
		if err != nil || !ok {
			t.Errorf("got (%v, %v), want (true, nil)", ok, err)
		}
	})

	t.Run("operator accepts", func(t *testing.T) {
		ok, err := AllowWrite(existing, false, scripted(t, "y"))
		if err != nil || !ok {
			t.Errorf("got (%v, %v), want (true, nil)", ok, err)
		}
	})

	t.Run("operator declines", func(t *testing.T) {
		ok, err := AllowWrite(existing, false, scripted(t, "n"))
		if err != nil || ok {
			t.Errorf("got (%v, %v), want (false, nil)", ok, err)
		}
	})
}

func TestCopyTemplateFiles(t *testing.T) {
	dest := t.TempDir()
	if err := CopyTemplateFiles(dest, false, refusing(t)); err != nil {
		t.Fatalf("CopyTemplateFiles failed: %v", err)
	}

	for _, name := range []string{
		"geoflow.yaml",
		filepath.Join("train", "train.go"),
		filepath.Join("evaluate", "evaluate.go"),
	} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("template %s not copied: %v", name, err)
		}
	}
}

func TestCopyTemplateFilesRespectsGuard(t *testing.T) {
	dest := t.TempDir()
	marker := filepath.Join(dest, "geoflow.yaml")
	if err := os.WriteFile(marker, []byte("keep me"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Decline the one existing file, the rest copies normally.
	if err := CopyTemplateFiles(dest, false, scripted(t, "n")); err != nil {
		t.Fatalf("CopyTemplateFiles failed: %v", err)
	}

	content, err := os.ReadFile(marker)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "keep me" {
		t.Error("declined file was overwritten")
	}
	if _, err := os.Stat(filepath.Join(dest, "train", "train.go")); err != nil {
		t.Error("remaining templates not copied")
	}
}

func TestCreateDataDirs(t *testing.T) {
	dp := config.NewDataPaths(filepath.Join(t.TempDir(), "data"))
	if err := CreateDataDirs(dp); err != nil {
		t.Fatalf("CreateDataDirs failed: %v", err)
	}
	for _, dir := range dp.AllDirs() {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("data dir %s not created", dir)
		}
	}

	// Idempotent on existing dirs.
	if err := CreateDataDirs(dp); err != nil {
		t.Errorf("second CreateDataDirs failed: %v", err)
	}
}

func TestGitRoot(t *testing.T) {
	dir := t.TempDir()

	_, err := GitRoot(dir)
	if !errors.Is(err, ErrNoGitRoot) {
		t.Errorf("want ErrNoGitRoot, got %v", err)
	}

	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	root, err := GitRoot(dir)
	if err != nil || root != dir {
		t.Errorf("got (%q, %v), want (%q, nil)", root, err, dir)
	}

	subdir := filepath.Join(dir, "sub", "deeper")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	root, err = GitRoot(subdir)
	if err != nil || root != dir {
		t.Errorf("subdir lookup got (%q, %v), want (%q, nil)", root, err, dir)
	}
}
