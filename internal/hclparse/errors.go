package hclparse

import "fmt"

// PanicWhileParsingError is returned when the underlying HCL machinery panicked while parsing a file.
type PanicWhileParsingError struct {
	RecoveredValue any
	ConfigFile     string
}

func (err PanicWhileParsingError) Error() string {
	return fmt.Sprintf("recovering panic while parsing '%s'. Error: %v", err.ConfigFile, err.RecoveredValue)
}
