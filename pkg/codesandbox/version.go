package codesandbox

import (
	"context"
	"fmt"
	"io"
	"strings"

	versions "github.com/hashicorp/go-version"
	"github.com/semaphoreci/clidriver/pkg/process"
	log "github.com/sirupsen/logrus"
)

// DefaultVersionConstraint is the range of CLI versions
// whose prompts match ExportScript and LogoutScript.
const DefaultVersionConstraint = ">= 1.0.0"

// FindCLIVersion runs the CLI the same way conversations run it,
// so it is looked up in the project's PATH.
func FindCLIVersion(ctx context.Context, cliPath string, env *process.Environment) (*versions.Version, error) {
	p, err := process.Start(process.Config{
		Command:  cliPath,
		Args:     []string{"--version"},
		Env:      env,
		UseShell: true,
		NoPTY:    true,
	})

	if err != nil {
		return nil, fmt.Errorf("error running %s --version: %v", cliPath, err)
	}

	defer p.Close()

	go func() {
		_, _ = io.Copy(io.Discard, p.Stderr())
	}()

	read := make(chan []byte, 1)
	go func() {
		output, _ := io.ReadAll(p.Stdout())
		read <- output
	}()

	var output []byte
	select {
	case output = <-read:
	case <-ctx.Done():
		_ = p.Terminate()
		return nil, ctx.Err()
	}

	exitCode := p.Wait()
	if exitCode != 0 {
		log.Errorf("Error determining %s version: exit code %d", cliPath, exitCode)
		return nil, fmt.Errorf("%s --version exited with %d", cliPath, exitCode)
	}

	// Some versions print a name before the number, e.g. "codesandbox/2.2.3".
	for _, field := range strings.FieldsFunc(string(output), func(r rune) bool {
		return r == ' ' || r == '/' || r == '\n' || r == '\r' || r == '\t'
	}) {
		version, err := versions.NewVersion(field)
		if err == nil {
			return version, nil
		}
	}

	return nil, fmt.Errorf("could not find a version in '%s'", strings.TrimSpace(string(output)))
}

// CheckVersion fails if the CLI version is outside constraint.
// An empty constraint skips the check.
func CheckVersion(ctx context.Context, cliPath, constraint string, env *process.Environment) error {
	if constraint == "" {
		return nil
	}

	constraints, err := versions.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version constraint '%s': %v", constraint, err)
	}

	version, err := FindCLIVersion(ctx, cliPath, env)
	if err != nil {
		return err
	}

	if !constraints.Check(version) {
		return fmt.Errorf("%s %s is not supported, %s is required", cliPath, version, constraint)
	}

	log.Debugf("Using %s %s", cliPath, version)
	return nil
}
