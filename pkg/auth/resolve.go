package auth

import (
	"fmt"
)

// Source names where resolved credentials came from
type Source string

const (
	SourceProfile Source = "profile"
	SourceConfig  Source = "config"
	SourceNone    Source = "none"
)

// Resolve picks the credentials for a run. A named profile must exist. Without a
// name, complete configured credentials win, then the default stored profile.
// When nothing complete is found the configured (possibly empty) credentials are
// returned unchanged so authentication reports what is missing.
func (m *Manager) Resolve(profile string, configured Credentials) (Credentials, Source, error) {
	if profile != "" {
		account, err := m.Retrieve(profile)
		if err != nil {
			return Credentials{}, SourceNone, fmt.Errorf("failed to load profile: %w", err)
		}
		return account.Credentials, SourceProfile, nil
	}

	if configured.Complete() {
		return configured, SourceConfig, nil
	}

	if account, err := m.Retrieve(DefaultProfile); err == nil {
		return account.Credentials, SourceProfile, nil
	}

	return configured, SourceNone, nil
}
