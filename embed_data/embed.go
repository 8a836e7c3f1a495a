package embed_data

import _ "embed"

//go:embed prompts/chat_prompt.tmpl
var ChatPrompt []byte

//go:embed prompts/repair_prompt.tmpl
var RepairPrompt []byte

//go:embed models_details.json
var ModelDetails []byte

//go:embed tree-sitter/queries/javascript.json
var JavascriptQuery []byte

//go:embed tree-sitter/queries/typescript.json
var TypescriptQuery []byte
