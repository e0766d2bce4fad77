package audio

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// FormatSeconds exports formatSeconds for testing.
var FormatSeconds = formatSeconds

// --- Processor dependency injection exports ---

// CommandRunner exports commandRunner interface for testing.
type CommandRunner = commandRunner

// TempDirCreator exports tempDirCreator interface for testing.
type TempDirCreator = tempDirCreator

// FileRemover exports fileRemover interface for testing.
type FileRemover = fileRemover

// FileStatter exports fileStatter interface for testing.
type FileStatter = fileStatter

// FileWriter exports fileWriter interface for testing.
type FileWriter = fileWriter
