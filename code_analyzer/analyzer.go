package code_analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"

	"github.com/meysamhadeli/dappai/code_analyzer/contracts"
	"github.com/meysamhadeli/dappai/code_analyzer/models"
	"github.com/meysamhadeli/dappai/embed_data"
	"github.com/meysamhadeli/dappai/utils"
)

const (
	// maxFileSize skips anything larger, matching typical generated artefacts.
	maxFileSize = 100 * 1024
	// fullContentLimit is the largest frontend file sent verbatim; larger ones are summarised.
	fullContentLimit = 16 * 1024
)

// CodeAnalyzer collects the project context sent to the model.
type CodeAnalyzer struct {
	Cwd      string
	cache    *SummaryCache
	logger   *zap.Logger
	skipDirs []string
}

// NewCodeAnalyzer initializes a new CodeAnalyzer. skipDirs are project-relative
// directories to leave out entirely, such as Foundry's vendored libraries.
func NewCodeAnalyzer(cwd string, cache *SummaryCache, logger *zap.Logger, skipDirs ...string) contracts.ICodeAnalyzer {
	if cache == nil {
		cache = NewSummaryCache(DefaultSummaryTTL, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	normalized := make([]string, 0, len(skipDirs))
	for _, dir := range skipDirs {
		if dir = strings.Trim(filepath.ToSlash(dir), "/"); dir != "" {
			normalized = append(normalized, dir)
		}
	}
	return &CodeAnalyzer{Cwd: cwd, cache: cache, logger: logger, skipDirs: normalized}
}

// sendsFullContent reports whether a file is always included verbatim.
func sendsFullContent(relativePath string) bool {
	switch utils.GetSupportedLanguage(relativePath) {
	case "solidity", "toml", "json":
		return true
	}
	return false
}

func (analyzer *CodeAnalyzer) skipped(relativePath string) bool {
	for _, dir := range analyzer.skipDirs {
		if relativePath == dir || strings.HasPrefix(relativePath, dir+"/") {
			return true
		}
	}
	return false
}

func (analyzer *CodeAnalyzer) GetProjectFiles(ctx context.Context) (*models.FullContextData, error) {
	var result models.FullContextData

	ignorePatterns, err := utils.GetIgnorePatterns(analyzer.Cwd)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(analyzer.Cwd, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		relativePath, err := filepath.Rel(analyzer.Cwd, path)
		if err != nil {
			return err
		}
		relativePath = filepath.ToSlash(relativePath)
		if relativePath == "." {
			return nil
		}

		if utils.IsDefaultIgnored(relativePath) || analyzer.skipped(relativePath) || utils.IsIgnored(relativePath, ignorePatterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %s, error: %w", relativePath, err)
		}
		if info.Size() > maxFileSize {
			result.Skipped++
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file: %s, error: %w", relativePath, err)
		}

		fileData := models.FileData{RelativePath: relativePath}
		if sendsFullContent(relativePath) || len(content) <= fullContentLimit {
			fileData.Code = string(content)
			result.RawCodes = append(result.RawCodes, fmt.Sprintf("**File: %s**\n\n%s", relativePath, content))
		} else {
			fileData.Summary = strings.Join(analyzer.summarize(relativePath, content), "\n")
			result.RawCodes = append(result.RawCodes, fmt.Sprintf("**File: %s** (summary, file too large to include)\n\n%s", relativePath, fileData.Summary))
		}
		result.FileData = append(result.FileData, fileData)

		return nil
	})
	if err != nil {
		return nil, err
	}

	analyzer.logger.Debug("collected project context",
		zap.Int("files", len(result.FileData)),
		zap.Int("skipped", result.Skipped),
	)
	return &result, nil
}

// BuildContext renders the project files into the prompt section.
func (analyzer *CodeAnalyzer) BuildContext(ctx context.Context) (string, error) {
	if purged := analyzer.cache.Purge(); purged > 0 {
		analyzer.logger.Debug("purged expired summaries", zap.Int("count", purged))
	}

	data, err := analyzer.GetProjectFiles(ctx)
	if err != nil {
		return "", err
	}

	stats := analyzer.cache.Stats()
	analyzer.logger.Debug("summary cache",
		zap.Int("entries", stats.Entries),
		zap.Float64("hit_rate_percent", stats.HitRatePercent),
	)
	return strings.Join(data.RawCodes, "\n---------\n\n"), nil
}

// ResetCache forgets cached summaries and ignore patterns so the next
// context is rebuilt from disk.
func (analyzer *CodeAnalyzer) ResetCache() {
	analyzer.cache.Clear()
	utils.ClearIgnoreCache()
}

func (analyzer *CodeAnalyzer) summarize(relativePath string, sourceCode []byte) []string {
	language := utils.GetSupportedLanguage(relativePath)
	if parts, ok := analyzer.cache.Get(language, sourceCode); ok {
		return parts
	}
	parts := analyzer.ProcessFile(relativePath, sourceCode)
	analyzer.cache.Set(language, sourceCode, parts)
	return parts
}

type compiledQuery struct {
	tag   string
	query *sitter.Query
}

type grammar struct {
	lang    *sitter.Language
	queries []compiledQuery
}

var (
	grammarsOnce sync.Once
	grammars     map[string]*grammar
)

func loadGrammars() {
	grammars = map[string]*grammar{
		"javascript": compileGrammar(javascript.GetLanguage(), embed_data.JavascriptQuery),
		"typescript": compileGrammar(typescript.GetLanguage(), embed_data.TypescriptQuery),
		"tsx":        compileGrammar(tsx.GetLanguage(), embed_data.TypescriptQuery),
	}
}

// compileGrammar compiles every tagged query; a query that does not compile
// for this grammar is left out.
func compileGrammar(lang *sitter.Language, queryJSON []byte) *grammar {
	g := &grammar{lang: lang}

	queries := make(map[string]string)
	if err := json.Unmarshal(queryJSON, &queries); err != nil {
		return g
	}

	tags := make([]string, 0, len(queries))
	for tag := range queries {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		query, err := sitter.NewQuery([]byte(queries[tag]), lang)
		if err != nil {
			continue
		}
		g.queries = append(g.queries, compiledQuery{tag: tag, query: query})
	}
	return g
}

// ProcessFile summarises a frontend source file with tree-sitter. Files in
// other languages are reduced to their path and first line.
func (analyzer *CodeAnalyzer) ProcessFile(filePath string, sourceCode []byte) []string {
	grammarsOnce.Do(loadGrammars)

	g, ok := grammars[utils.GetSupportedLanguage(filePath)]
	if !ok {
		firstLine, _, _ := strings.Cut(string(sourceCode), "\n")
		return []string{filePath, firstLine}
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		analyzer.logger.Debug("tree-sitter parse failed", zap.String("file", filePath), zap.Error(err))
		firstLine, _, _ := strings.Cut(string(sourceCode), "\n")
		return []string{filePath, firstLine}
	}
	defer tree.Close()

	var elements []string
	for _, q := range g.queries {
		cursor := sitter.NewQueryCursor()
		cursor.Exec(q.query, tree.RootNode())

		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, capture := range match.Captures {
				elements = append(elements, fmt.Sprintf("%s: %s", q.tag, capture.Node.Content(sourceCode)))
			}
		}
		cursor.Close()
	}

	return elements
}
