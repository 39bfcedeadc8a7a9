package domain

// LoadError represents an error loading a specific rule file
type LoadError struct {
	FilePath string `json:"file_path"`      // Path to the file that failed to load
	Error    string `json:"error"`          // Error message describing the failure
	Line     int    `json:"line,omitempty"` // Line number where the error occurred (if applicable)
}

// RuleFile represents a rule file that can contain one or more rules
type RuleFile struct {
	Rules []Rule `json:"rules" yaml:"rules"`
}

// ReservedFile is the on-disk list of reserved paths
type ReservedFile struct {
	Paths []ReservedPath `json:"paths" yaml:"paths"`
}
