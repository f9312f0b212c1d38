package auth

import (
	"os"
	"time"
)

// EnvProfile is the name reported for credentials read from the environment
const EnvProfile = "env"

// EnvironmentStore implements CredentialStore over environment variables.
// It is read-only and answers for any profile name.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// CredentialsFromEnv reads the TWSCRAPER_* variables, falling back to the
// TW_* names used by older secrets files
func CredentialsFromEnv() Credentials {
	return Credentials{
		APIKey:            firstEnv("TWSCRAPER_API_KEY", "TW_API_KEY"),
		APISecret:         firstEnv("TWSCRAPER_API_SECRET", "TW_API_SECRET"),
		AccessToken:       firstEnv("TWSCRAPER_ACCESS_TOKEN", "TW_TOKEN"),
		AccessTokenSecret: firstEnv("TWSCRAPER_ACCESS_TOKEN_SECRET", "TW_SECRET"),
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment credentials when all four are set
func (e *EnvironmentStore) Retrieve(profile string) (*Account, error) {
	creds := CredentialsFromEnv()
	if !creds.Complete() {
		return nil, ErrCredentialsNotFound
	}

	if profile == "" {
		profile = EnvProfile
	}
	return &Account{Profile: profile, Credentials: creds, LastModified: time.Now()}, nil
}

// List returns a single account if the environment is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve(EnvProfile)
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials are set
func (e *EnvironmentStore) Exists(profile string) bool {
	return CredentialsFromEnv().Complete()
}
