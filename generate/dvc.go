package generate

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"geoflow/config"
)

// Runner 外部命令执行
type Runner interface {
	Run(command string) error
}

// ShellRunner executes commands through the shell in a fixed working
// directory. Failures are returned untouched so the external tool's
// report reaches the operator.
type ShellRunner struct {
	Dir string
}

// Run 执行单条命令
func (r ShellRunner) Run(command string) error {
	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = r.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// RecordingRunner captures commands instead of executing them, used by
// tests to assert the exact command sequence.
type RecordingRunner struct {
	Commands []string
}

// Run 记录命令
func (r *RecordingRunner) Run(command string) error {
	r.Commands = append(r.Commands, command)
	return nil
}

// SetupDVC interactively configures data versioning for a project:
// the operator picks a remote storage backend and supplies a remote
// identifier, then the fixed DVC command sequence is issued.
func SetupDVC(dp config.DataPaths, prompter Prompter, runner Runner) error {
	choice, err := prompter.Ask("Remote storage backend:\na) Google Drive\nChoice: ")
	if err != nil {
		return err
	}
	if strings.TrimSpace(strings.ToLower(choice)) != "a" {
		return fmt.Errorf("unsupported remote storage backend choice: %q", choice)
	}

	remoteID, err := prompter.Ask("Google Drive folder id (the part of the folder URL after the last /): ")
	if err != nil {
		return err
	}

	commands := []string{
		"dvc init",
		"dvc add " + strings.Join(dp.DVCFiles(), " "),
		"dvc remote add -d gdrive gdrive://" + remoteID,
		"dvc push",
	}
	for _, command := range commands {
		if err := runner.Run(command); err != nil {
			return err
		}
	}
	return nil
}
