// Package generate scaffolds new pipeline projects: template files,
// data directories, GitHub Actions workflows and DVC data versioning.
package generate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"geoflow/config"
	"geoflow/templates"
)

// Prompter 操作员交互
type Prompter interface {
	Ask(prompt string) (string, error)
}

// StdinPrompter reads operator answers from standard input.
type StdinPrompter struct {
	reader *bufio.Reader
}

// NewStdinPrompter 创建标准输入交互器
func NewStdinPrompter() *StdinPrompter {
	return &StdinPrompter{reader: bufio.NewReader(os.Stdin)}
}

// Ask prints the prompt and returns one trimmed line of input.
func (p *StdinPrompter) Ask(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptFunc adapts a function to the Prompter interface, used by
// tests to script operator answers.
type PromptFunc func(prompt string) (string, error)

// Ask 执行脚本化应答
func (f PromptFunc) Ask(prompt string) (string, error) { return f(prompt) }

// AllowWrite decides whether path may be written. Non-existent targets
// are always permitted; existing ones require overwrite or an operator
// confirmation.
func AllowWrite(path string, overwrite bool, prompter Prompter) (bool, error) {
	if overwrite {
		return true, nil
	}
	if _, err := os.Stat(path); err != nil {
		return true, nil
	}
	answer, err := prompter.Ask(fmt.Sprintf("%s already exists, overwrite? [y/n]: ", path))
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y"), nil
}

// CopyTemplateFiles copies the project template files (dataset
// definitions, training and evaluation entrypoints) into dest,
// honoring the write guard per file.
func CopyTemplateFiles(dest string, overwrite bool, prompter Prompter) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	for _, tf := range templates.ProjectFiles() {
		target := filepath.Join(dest, tf.Name)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		ok, err := AllowWrite(target, overwrite, prompter)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		content, err := templates.Read(tf.Path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return fmt.Errorf("write template %s: %v", target, err)
		}
	}
	return nil
}

// CreateDataDirs creates every data directory (and parents) from the
// path configuration if absent.
func CreateDataDirs(dp config.DataPaths) error {
	for _, dir := range dp.AllDirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
