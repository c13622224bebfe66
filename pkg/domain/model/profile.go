package model

// UserProfile is the singleton profile of the human user, injected into
// persona prompts when present. Absence is treated as an empty profile.
type UserProfile struct {
	Name  string
	About string
}

// Empty reports whether nothing is known about the user
func (p UserProfile) Empty() bool {
	return p.Name == "" && p.About == ""
}

// KeyPool is the singleton pool of model API keys used for round-robin
// credential rotation.
type KeyPool struct {
	Keys []string
}
