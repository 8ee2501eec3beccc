package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvConsumerKey    = "FOLLOWGRAPH_CONSUMER_KEY"
	EnvConsumerSecret = "FOLLOWGRAPH_CONSUMER_SECRET"
	EnvBearerToken    = "FOLLOWGRAPH_BEARER_TOKEN"
)

// EnvironmentStore is a read-only CredentialStore over environment variables.
// It answers for any profile name.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve builds credentials from the environment
func (e *EnvironmentStore) Retrieve(profile string) (*Credentials, error) {
	if !e.Exists(profile) {
		return nil, ErrCredentialsNotFound
	}
	if profile == "" {
		profile = DefaultProfile
	}

	return &Credentials{
		Profile:        profile,
		ConsumerKey:    os.Getenv(EnvConsumerKey),
		ConsumerSecret: os.Getenv(EnvConsumerSecret),
		BearerToken:    os.Getenv(EnvBearerToken),
		LastModified:   time.Now(),
	}, nil
}

// List returns the environment credentials as the default profile, if set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve(DefaultProfile)
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

// Exists reports whether a usable key pair or bearer token is set
func (e *EnvironmentStore) Exists(profile string) bool {
	if os.Getenv(EnvBearerToken) != "" {
		return true
	}
	return os.Getenv(EnvConsumerKey) != "" && os.Getenv(EnvConsumerSecret) != ""
}
