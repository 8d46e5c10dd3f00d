//go:build !darwin

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Without a system keychain, secrets live in a 0600 JSON file under
// XDG_DATA_HOME keyed by "service/account".

func secretsFilePath() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "promptlift", "secrets.json")
}

func secretKey(service, account string) string {
	return service + "/" + account
}

func readSecrets() (map[string]string, error) {
	raw, err := os.ReadFile(secretsFilePath())
	if err != nil {
		return nil, err
	}
	secrets := make(map[string]string)
	if err := json.Unmarshal(raw, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	return secrets, nil
}

func keychainExec(service, account string) ([]byte, error) {
	secrets, err := readSecrets()
	if err != nil {
		return nil, fmt.Errorf("secrets file not available: %w", err)
	}
	val, ok := secrets[secretKey(service, account)]
	if !ok {
		return nil, fmt.Errorf("no secret for %s", secretKey(service, account))
	}
	return []byte(val), nil
}

func keychainSet(service, account, value string) error {
	secrets, err := readSecrets()
	switch {
	case errors.Is(err, os.ErrNotExist):
		secrets = make(map[string]string)
	case err != nil:
		return err
	}
	secrets[secretKey(service, account)] = value

	raw, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(secretsFilePath(), raw, 0o600)
}
