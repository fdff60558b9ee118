package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mitchellh/panicwrap"
	"github.com/semaphoreci/clidriver/pkg/codesandbox"
	"github.com/semaphoreci/clidriver/pkg/config"
	"github.com/semaphoreci/clidriver/pkg/eventlogger"
	"github.com/semaphoreci/clidriver/pkg/project"
	"github.com/semaphoreci/clidriver/pkg/script"
	"github.com/semaphoreci/clidriver/pkg/server"
	log "github.com/sirupsen/logrus"
	pflag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var VERSION = "dev"

const usage = `Usage: clidriver <command> [flags]

Commands:
  export    export the project to a new CodeSandbox sandbox
  logout    sign the codesandbox CLI out
  serve     run the local HTTP API
  script    print the export and logout scripts
  version   print the version
`

func main() {
	exitStatus, err := panicwrap.BasicWrap(panicHandler)
	if err != nil {
		panic(err)
	}

	// the parent process, which only waits for the child
	if exitStatus >= 0 {
		os.Exit(exitStatus)
	}

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	action := os.Args[1]

	switch action {
	case "export":
		RunExport(os.Args[2:])
	case "logout":
		RunLogout(os.Args[2:])
	case "serve":
		RunServer(os.Args[2:])
	case "script":
		PrintScripts(os.Args[2:])
	case "version":
		fmt.Println(VERSION)
	default:
		fmt.Printf("Unknown command '%s'\n\n%s", action, usage)
		os.Exit(1)
	}
}

func panicHandler(output string) {
	log.Errorf("clidriver panicked:\n\n%s\n", output)
	os.Exit(1)
}

func RunExport(args []string) {
	logfile := loadConfig("export", args)

	dir := projectPath()
	token := readToken()
	if token == "" {
		log.Fatalf("%v. Pass --%s or set %s_TOKEN.", codesandbox.ErrMissingToken, config.Token, config.EnvPrefix)
	}

	if !viper.GetBool(config.Yes) && !confirmPublicExport() {
		log.Info("Export cancelled")
		return
	}

	client, closeTranscript := newClient()
	defer closeTranscript()
	defer closeLogfile(logfile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := client.Export(ctx, dir, token)
	if err != nil {
		log.Errorf("Export failed: %v", err)
		exit(1, closeTranscript, logfile)
	}

	fmt.Println(result.URL)
}

func RunLogout(args []string) {
	logfile := loadConfig("logout", args)

	client, closeTranscript := newClient()
	defer closeTranscript()
	defer closeLogfile(logfile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := client.Logout(ctx, projectPath())
	if err != nil {
		log.Errorf("Logout failed: %v", err)
		exit(1, closeTranscript, logfile)
	}

	err = clearStoredToken()
	if err != nil {
		log.Errorf("Logged out, but the stored token could not be cleared: %v", err)
	}

	fmt.Println(result.Outcome)
}

func RunServer(args []string) {
	logfile := loadConfig("serve", args)
	defer closeLogfile(logfile)

	secret := viper.GetString(config.AuthTokenSecret)
	if secret == "" {
		log.Fatalf("--%s is required to serve", config.AuthTokenSecret)
	}

	client, closeTranscript := newClient()
	defer closeTranscript()

	transcript, err := eventlogger.NewFileBackend(viper.GetString(config.Transcript))
	if err != nil {
		log.Infof("Transcript not served: %v", err)
	}

	var logWriter io.Writer = os.Stdout
	if logfile != nil {
		logWriter = io.MultiWriter(logfile, os.Stdout)
	}

	err = server.NewServer(server.ServerConfig{
		Host:        viper.GetString(config.Host),
		Port:        viper.GetInt(config.Port),
		Version:     VERSION,
		LogFile:     logWriter,
		JWTSecret:   []byte(secret),
		Exporter:    client,
		ProjectPath: projectPath(),
		Token:       viper.GetString(config.Token),
		OnLogout:    clearStoredToken,
		Transcript:  transcript,
	}).Serve()

	log.Fatalf("Server stopped: %v", err)
}

func PrintScripts(args []string) {
	logfile := loadConfig("script", args)
	defer closeLogfile(logfile)

	client, closeTranscript := newClient()
	defer closeTranscript()

	// Secrets are masked by Dump, so a placeholder token is enough.
	export, err := client.ExportScript("token")
	if err != nil {
		log.Fatalf("Error loading export script: %v", err)
	}

	logout, err := client.LogoutScript()
	if err != nil {
		log.Fatalf("Error loading logout script: %v", err)
	}

	for _, s := range []struct {
		name   string
		script *script.Script
	}{{"export", export}, {"logout", logout}} {
		out, err := s.script.Dump()
		if err != nil {
			log.Fatalf("Error rendering %s script: %v", s.name, err)
		}

		fmt.Printf("# %s\n%s\n", s.name, out)
	}
}

func loadConfig(command string, args []string) *os.File {
	flags := pflag.NewFlagSet(command, pflag.ExitOnError)

	flags.String(config.ConfigFile, "", "Config file")
	flags.String(config.CLIPath, codesandbox.DefaultCLIPath, "Path to the codesandbox CLI")
	flags.String(config.Project, ".", "Path to the project")
	flags.String(config.Token, "", "CodeSandbox token")
	flags.Duration(config.StepTimeout, config.DefaultStepTimeout, "How long to wait for each prompt. Zero waits forever")
	flags.Bool(config.NoPTY, false, "Talk to the CLI through pipes instead of a pseudo terminal")
	flags.String(config.ExportScript, "", "YAML or JSON file replacing the export script")
	flags.String(config.LogoutScript, "", "YAML or JSON file replacing the logout script")
	flags.String(config.VersionConstraint, codesandbox.DefaultVersionConstraint, "Supported CLI versions. Empty skips the check")
	flags.String(config.Transcript, eventlogger.DefaultTranscriptPath, "Transcript file. Empty disables it")
	flags.String(config.LogFile, "", "Also write logs to this file")
	flags.Bool(config.Debug, false, "Log everything the CLI prints")
	flags.BoolP(config.Yes, "y", false, "Don't ask before making the project public")
	flags.String(config.Host, config.DefaultHost, "Host of the server")
	flags.Int(config.Port, config.DefaultPort, "Port of the server")
	flags.String(config.AuthTokenSecret, "", "Secret used to verify the server's JWT tokens")
	flags.String(config.StatsdHost, "", "Statsd host for metrics. Empty disables metrics")
	flags.String(config.StatsdPort, config.DefaultStatsdPort, "Statsd port")
	flags.String(config.StatsdPrefix, config.DefaultStatsdPrefix, "Statsd metric prefix")

	_ = flags.Parse(args)

	err := viper.BindPFlags(flags)
	if err != nil {
		log.Fatalf("Error binding flags: %v", err)
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if configFile := viper.GetString(config.ConfigFile); configFile != "" {
		loadConfigFile(configFile)
	}

	err = config.ValidateKeys(viper.AllKeys())
	if err != nil {
		log.Fatalf("%v. Exiting...", err)
	}

	logfile := setupLogging()

	for _, file := range []string{viper.GetString(config.ExportScript), viper.GetString(config.LogoutScript)} {
		err := config.CheckFileExists(file)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}

	err = codesandbox.ConfigureMetrics(
		viper.GetString(config.StatsdHost),
		viper.GetString(config.StatsdPort),
		viper.GetString(config.StatsdPrefix),
	)

	if err != nil {
		log.Errorf("Error configuring metrics: %v", err)
	}

	return logfile
}

func loadConfigFile(configFile string) {
	viper.SetConfigFile(configFile)

	err := viper.ReadInConfig()
	if err != nil {
		log.Fatalf("Couldn't load config file %s: %v", configFile, err)
	}

	log.Debugf("Loaded config file %s", configFile)
}

func setupLogging() *os.File {
	log.SetFormatter(&eventlogger.CustomFormatter{})
	log.SetLevel(log.InfoLevel)
	if viper.GetBool(config.Debug) {
		log.SetLevel(log.DebugLevel)
	}

	path := viper.GetString(config.LogFile)
	if path == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	// #nosec
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		log.Fatalf("Error opening log file %s: %v", path, err)
	}

	log.SetOutput(io.MultiWriter(f, os.Stderr))
	return f
}

func closeLogfile(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}

func exit(code int, closeTranscript func(), logfile *os.File) {
	closeTranscript()
	closeLogfile(logfile)
	os.Exit(code)
}

func newClient() (*codesandbox.Client, func()) {
	var logger *eventlogger.Logger

	if path := viper.GetString(config.Transcript); path != "" {
		var err error
		logger, err = eventlogger.NewFileLogger(path)
		if err != nil {
			log.Errorf("Transcript disabled: %v", err)
			logger = nil
		} else {
			log.Debugf("Writing transcript to %s", path)
		}
	}

	client := codesandbox.NewClient(codesandbox.Config{
		CLIPath:           viper.GetString(config.CLIPath),
		VersionConstraint: viper.GetString(config.VersionConstraint),
		StepTimeout:       viper.GetDuration(config.StepTimeout),
		NoPTY:             viper.GetBool(config.NoPTY),
		ExportScriptFile:  viper.GetString(config.ExportScript),
		LogoutScriptFile:  viper.GetString(config.LogoutScript),
		Logger:            logger,
	})

	return client, func() {
		if logger != nil {
			_ = logger.Close()
		}
	}
}

func projectPath() string {
	path, err := filepath.Abs(viper.GetString(config.Project))
	if err != nil {
		log.Fatalf("Invalid project path: %v", err)
	}

	if url, err := project.ReadSandboxURL(path); err == nil && url != "" {
		log.Infof("Current sandbox: %s", url)
	}

	return path
}

func readToken() string {
	token := viper.GetString(config.Token)
	if token != "" || !term.IsTerminal(int(os.Stdin.Fd())) {
		return token
	}

	fmt.Fprint(os.Stderr, "CodeSandbox token: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		log.Errorf("Error reading token: %v", err)
		return ""
	}

	return strings.TrimSpace(string(raw))
}

func confirmPublicExport() bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		log.Fatalf("The exported code will be public. Pass --%s to confirm.", config.Yes)
	}

	fmt.Fprint(os.Stderr, "By deploying to CodeSandbox, the code of your project will be made public. Continue? [y/N] ")

	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

//
// clearStoredToken removes the token from the config file, if it came from there.
// It only touches its own viper instance, as the server calls it while serving.
//
func clearStoredToken() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		return nil
	}

	fileConfig := viper.New()
	fileConfig.SetConfigFile(configFile)

	err := fileConfig.ReadInConfig()
	if err != nil {
		return err
	}

	if fileConfig.GetString(config.Token) == "" {
		return nil
	}

	fileConfig.Set(config.Token, "")

	err = fileConfig.WriteConfig()
	if err != nil {
		return err
	}

	log.Infof("Cleared the token stored in %s", configFile)
	return nil
}
