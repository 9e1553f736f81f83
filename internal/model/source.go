package model

// Path represents a file system path.
type Path string

// SourceFile identifies one Python file picked up by the batch workflow.
type SourceFile struct {
	FullPath  Path   `yaml:"path"`
	ShortPath Path   `yaml:"short_path"`
	Hash      string `yaml:"hash,omitempty"`
}

// FileChanges is the outcome of refactoring one file: the records produced
// by the applied edit batches and the rewritten source text.
type FileChanges struct {
	Source  SourceFile     `yaml:"source"`
	Records []ChangeRecord `yaml:"records"`
	Diff    string         `yaml:"diff,omitempty"`
	Output  string         `yaml:"-"`
}

// Changed reports whether any edit was applied to the file.
func (f FileChanges) Changed() bool {
	return len(f.Records) > 0
}
