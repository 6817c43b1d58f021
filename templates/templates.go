// Package templates holds the embedded project and workflow templates
// materialized by the generator.
package templates

import (
	"embed"
	"path/filepath"
)

//go:embed files
var files embed.FS

// ProjectFile 项目模板文件: 目标文件名与嵌入路径
type ProjectFile struct {
	Name string
	Path string
}

// ProjectFiles returns the templates copied into a new project:
// dataset definitions, training entrypoint, evaluation entrypoint.
func ProjectFiles() []ProjectFile {
	return []ProjectFile{
		{Name: "geoflow.yaml", Path: "files/geoflow.yaml"},
		{Name: filepath.Join("train", "train.go"), Path: "files/train/train.go"},
		{Name: filepath.Join("evaluate", "evaluate.go"), Path: "files/evaluate/evaluate.go"},
	}
}

// Read returns an embedded template by path.
func Read(path string) ([]byte, error) {
	return files.ReadFile(path)
}

// DeployWorkflow returns the deploy workflow template.
func DeployWorkflow() []byte {
	return mustRead("files/workflows/deploy.yaml")
}

// TestWorkflow returns the test workflow template.
func TestWorkflow() []byte {
	return mustRead("files/workflows/test.yaml")
}

func mustRead(path string) []byte {
	content, err := files.ReadFile(path)
	if err != nil {
		// Embedded files are fixed at build time, a miss is a packaging bug.
		panic(err)
	}
	return content
}
