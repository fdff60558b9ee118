package testsupport

import (
	"strings"
)

// FakeCLI describes a stand-in for the codesandbox CLI.
// It prompts the way the real one does, and checks every answer.
type FakeCLI struct {
	Version string
	Token   string
	URL     string

	// SignedIn decides what logout says.
	SignedIn bool

	// Hang keeps the CLI waiting forever before the deployment prompt.
	Hang bool

	// Reworded replaces the deployment prompt with a different text.
	Reworded bool
}

const fakeCLITemplate = `
if [ "$1" = "--version" ]; then
  echo "codesandbox/__VERSION__ linux-x64 node-v18.0.0"
  exit 0
fi

if [ "$1" = "logout" ]; then
  if [ "__SIGNED_IN__" != "true" ]; then
    echo "You are already signed out"
    exit 0
  fi

  printf 'Are you sure you want to log out? (Y/n) '
  read answer
  if [ "$answer" = "Y" ]; then
    echo "Succesfully logged out"
    exit 0
  fi

  exit 1
fi

printf 'Do you want to sign in using GitHub? (Y/n) '
read answer
[ "$answer" = "Y" ] || exit 2

echo 'We will open CodeSandbox to finish the login process.'
printf 'Do you want to continue? (Y/n) '
read answer
[ "$answer" = "Y" ] || exit 3

echo 'You can find your token at https://codesandbox.io/cli/login'
printf 'Token: '
read token
if [ "$token" != "__TOKEN__" ]; then
  echo 'Error: Request failed with status code 401' >&2
  exit 4
fi

if [ "__HANG__" = "true" ]; then
  sleep 60
fi

if [ "__REWORDED__" = "true" ]; then
  printf 'Deploy now? (y/n) '
else
  printf 'Are you sure you want to proceed with the deployment? (y/n) '
fi

read answer
[ "$answer" = "y" ] || exit 5

echo 'Uploading files...'
printf '\033[32m[success]\033[39m __URL__\n'
`

func (c FakeCLI) Script() string {
	if c.Version == "" {
		c.Version = "2.2.3"
	}

	replacer := strings.NewReplacer(
		"__VERSION__", c.Version,
		"__TOKEN__", c.Token,
		"__URL__", c.URL,
		"__SIGNED_IN__", boolString(c.SignedIn),
		"__HANG__", boolString(c.Hang),
		"__REWORDED__", boolString(c.Reworded),
	)

	return replacer.Replace(fakeCLITemplate)
}

// Install writes the fake CLI as dir/codesandbox.
func (c FakeCLI) Install(dir string) (string, error) {
	return WriteExecutable(dir, "codesandbox", c.Script())
}

func boolString(b bool) string {
	if b {
		return "true"
	}

	return "false"
}
