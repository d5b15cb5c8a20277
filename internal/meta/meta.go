package meta

const (
	// CLIName is the binary name and the directory name used under the user config dir
	CLIName = "ideamixer"
	// DisplayName is shown in headers and prompts
	DisplayName = "Idea Mixer"
)
