package codesandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/semaphoreci/clidriver/pkg/conversation"
	"github.com/semaphoreci/clidriver/pkg/eventlogger"
	"github.com/semaphoreci/clidriver/pkg/process"
	"github.com/semaphoreci/clidriver/pkg/project"
	"github.com/semaphoreci/clidriver/pkg/retry"
	"github.com/semaphoreci/clidriver/pkg/script"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultCLIPath     = "codesandbox"
	DefaultGracePeriod = 2 * time.Second
)

var (
	ErrMissingToken = errors.New("a CodeSandbox token is required")
	ErrNoSandboxURL = errors.New("export failed, check your token and network connection")
)

type Config struct {
	CLIPath           string
	VersionConstraint string
	StepTimeout       time.Duration
	NoPTY             bool

	// Optional YAML or JSON files replacing the built-in scripts.
	ExportScriptFile string
	LogoutScriptFile string

	// GracePeriod is how long a completed conversation
	// waits for the CLI to exit before it is terminated.
	GracePeriod time.Duration

	Logger *eventlogger.Logger
}

type Client struct {
	config Config
}

func NewClient(config Config) *Client {
	if config.CLIPath == "" {
		config.CLIPath = DefaultCLIPath
	}

	if config.GracePeriod == 0 {
		config.GracePeriod = DefaultGracePeriod
	}

	return &Client{config: config}
}

func (c *Client) CLIPath() string {
	return c.config.CLIPath
}

// ExportScript is the script Export would run with token.
func (c *Client) ExportScript(token string) (*script.Script, error) {
	if c.config.ExportScriptFile != "" {
		return script.LoadFile(c.config.ExportScriptFile, token)
	}

	return ExportScript(token), nil
}

func (c *Client) LogoutScript() (*script.Script, error) {
	if c.config.LogoutScriptFile != "" {
		return script.LoadFile(c.config.LogoutScriptFile, "")
	}

	return LogoutScript(), nil
}

//
// Export deploys the project in projectPath to a new sandbox.
// The URL of the sandbox is stored in the project's package.json.
//
// An error is returned whenever the export did not produce a URL.
// The result is returned in every case, for the caller to report.
//
func (c *Client) Export(ctx context.Context, projectPath, token string) (conversation.Result, error) {
	if token == "" {
		return conversation.Result{}, ErrMissingToken
	}

	previous, err := project.ReadSandboxURL(projectPath)
	if err != nil {
		log.Warnf("Could not read previous sandbox URL: %v", err)
	} else if previous != "" {
		log.Infof("Project was exported to %s before. A new sandbox will be created.", previous)
	}

	s, err := c.ExportScript(token)
	if err != nil {
		return conversation.Result{}, err
	}

	result, err := c.converse(ctx, projectPath, session{
		name:         "export",
		args:         []string{"."},
		script:       s,
		completion:   exportCompletion(),
		failOnStderr: true,
	})

	if err != nil {
		return result, err
	}

	if !result.Completed() {
		return result, fmt.Errorf("export %s: %v", result.State, result.Err)
	}

	if result.URL == "" {
		return result, ErrNoSandboxURL
	}

	// Editors and package managers rewrite package.json too.
	err = retry.Do(retry.Options{
		Task:        "store sandbox URL",
		MaxAttempts: 3,
		Delay:       200 * time.Millisecond,
		Fn: func() error {
			return project.WriteSandboxURL(projectPath, result.URL)
		},
	})

	if err != nil {
		return result, fmt.Errorf("exported to %s, but could not store the URL: %v", result.URL, err)
	}

	log.Infof("Exported %s to %s", projectPath, result.URL)
	return result, nil
}

// Logout signs the CLI out. Being signed out already is a success.
func (c *Client) Logout(ctx context.Context, projectPath string) (conversation.Result, error) {
	s, err := c.LogoutScript()
	if err != nil {
		return conversation.Result{}, err
	}

	result, err := c.converse(ctx, projectPath, session{
		name:       "logout",
		args:       []string{"logout"},
		script:     s,
		completion: logoutCompletion(),
	})

	if err != nil {
		return result, err
	}

	if !result.Completed() {
		return result, fmt.Errorf("logout %s: %v", result.State, result.Err)
	}

	log.Infof("Logout finished: %s", result.Outcome)
	return result, nil
}

type session struct {
	name         string
	args         []string
	script       *script.Script
	completion   conversation.Completion
	failOnStderr bool
}

func (c *Client) converse(ctx context.Context, projectPath string, s session) (conversation.Result, error) {
	startedAt := time.Now()
	env := process.ProjectEnvironment(projectPath)

	err := CheckVersion(ctx, c.config.CLIPath, c.config.VersionConstraint, env)
	if err != nil {
		return conversation.Result{}, err
	}

	driver, err := conversation.New(conversation.Options{
		Name:         s.name,
		Script:       s.script,
		Completion:   s.completion,
		FailOnStderr: s.failOnStderr,
		StepTimeout:  c.config.StepTimeout,
		Logger:       c.config.Logger,
	})

	if err != nil {
		return conversation.Result{}, err
	}

	p, err := process.Start(process.Config{
		Command:  c.config.CLIPath,
		Args:     s.args,
		Dir:      projectPath,
		Env:      env,
		UseShell: true,
		NoPTY:    c.config.NoPTY,
	})

	if err != nil {
		return conversation.Result{}, fmt.Errorf("error starting %s: %v", c.config.CLIPath, err)
	}

	result, err := driver.Run(ctx, p)
	c.stop(p, result)

	submitResult(result, startedAt)
	return result, err
}

// stop lets a completed CLI finish on its own for a while.
// Anything else is terminated right away.
func (c *Client) stop(p *process.Process, result conversation.Result) {
	defer p.Close()

	if result.Completed() {
		select {
		case <-p.Done():
			return
		case <-time.After(c.config.GracePeriod):
			log.Debugf("%s did not exit within %v", p.CommandLine(), c.config.GracePeriod)
		}
	}

	if p.Exited() {
		return
	}

	err := p.Terminate()
	if err != nil {
		log.Errorf("Error terminating %s: %v", p.CommandLine(), err)
	}
}
