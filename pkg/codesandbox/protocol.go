package codesandbox

import (
	"github.com/semaphoreci/clidriver/pkg/conversation"
	"github.com/semaphoreci/clidriver/pkg/script"
)

// What the codesandbox CLI prints, matched byte for byte.
// A new CLI version rewording any of these breaks the conversation,
// which is why scripts can also be loaded from a file.
const (
	SignInPrompt         = "Do you want to sign in using GitHub"
	LoginRedirectNotice  = "will open CodeSandbox to finish the login process"
	TokenPrompt          = "Token:"
	DeploymentPrompt     = "proceed with the deployment"
	SuccessMarker        = "[success]"
	LogoutPrompt         = "log out?"
	LoggedOutMessage     = "Succesfully logged out" // sic
	AlreadySignedOutText = "already signed out"
)

const (
	OutcomeExported         = "exported"
	OutcomeLoggedOut        = "logged out"
	OutcomeAlreadyLoggedOut = "already logged out"
)

func ExportScript(token string) *script.Script {
	return script.MustNew(
		script.PromptStep{Trigger: SignInPrompt, Response: "Y"},

		// The CLI has no flag for the token. It only asks for one
		// after offering to open the login page in a browser.
		script.PromptStep{Trigger: LoginRedirectNotice, Response: "Y"},

		script.PromptStep{Trigger: TokenPrompt, Response: token, Secret: true},
		script.PromptStep{Trigger: DeploymentPrompt, Response: "y"},
	)
}

func LogoutScript() *script.Script {
	return script.MustNew(
		script.PromptStep{Trigger: LogoutPrompt, Response: "Y"},
	)
}

func exportCompletion() conversation.Completion {
	return conversation.MarkerCompletion{
		Marker:  SuccessMarker,
		Outcome: OutcomeExported,
	}
}

// The CLI doesn't ask anything when nobody is signed in,
// so logout completes on exit, whether or not the prompt was seen.
func logoutCompletion() conversation.Completion {
	return conversation.ExitCompletion{
		Outcomes: []conversation.ExitOutcome{
			{Substring: LoggedOutMessage, Name: OutcomeLoggedOut},
			{Substring: AlreadySignedOutText, Name: OutcomeAlreadyLoggedOut},
		},
	}
}
