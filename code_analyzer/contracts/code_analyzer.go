package contracts

import (
	"context"

	"github.com/meysamhadeli/dappai/code_analyzer/models"
)

type ICodeAnalyzer interface {
	GetProjectFiles(ctx context.Context) (*models.FullContextData, error)
	ProcessFile(relativePath string, sourceCode []byte) []string
	BuildContext(ctx context.Context) (string, error)
	ResetCache()
}
