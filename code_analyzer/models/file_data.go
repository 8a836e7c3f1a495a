package models

// FileData holds the path and content of a file
type FileData struct {
	RelativePath string
	Code         string
	// Summary is set instead of Code for large frontend files.
	Summary string
}

type FullContextData struct {
	FileData []FileData
	RawCodes []string
	Skipped  int
}
