package repair

import (
	"bytes"
	"text/template"

	"github.com/meysamhadeli/dappai/embed_data"
)

var repairTemplate = template.Must(template.New("repair").Parse(string(embed_data.RepairPrompt)))

type promptData struct {
	Context       string
	CurrentError  string
	PreviousError string
}

// buildSystemPrompt renders the repair prompt. previousError is empty on the
// first attempt.
func buildSystemPrompt(projectContext, currentError, previousError string) (string, error) {
	var buf bytes.Buffer
	err := repairTemplate.Execute(&buf, promptData{
		Context:       projectContext,
		CurrentError:  currentError,
		PreviousError: previousError,
	})
	return buf.String(), err
}

const (
	fixRequest  = "The build is failing. Return the JSON array of file edits that fixes it."
	formatRetry = "Your previous reply could not be parsed. Reply again with ONLY a JSON array of {\"path\": string, \"content\": string} objects and nothing else."
)
