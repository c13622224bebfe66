package config

// NewSeedForTest creates a Seed config for testing purposes
func NewSeedForTest(path string) *Seed {
	return &Seed{path: path}
}

// NewKeysForTest creates a Keys config for testing purposes
func NewKeysForTest(keys ...string) *Keys {
	return &Keys{keys: keys}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location, model string, thinkingBudget int) *Gemini {
	return &Gemini{projectID: projectID, location: location, model: model, thinkingBudget: thinkingBudget}
}
