//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultsDomain = "com.promptlift.app"

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Library", "Application Support", "promptlift")
	}
	return "promptlift-data"
}

func apiKeyHint() string {
	return fmt.Sprintf(" or macOS Keychain (service: %s, account: %s) or `promptlift config set-key`", secretService, secretAccount)
}

// darwinBackend reads and writes UserDefaults through the defaults(1) tool.
type darwinBackend struct {
	domain string
}

func newPlatformBackend() ConfigBackend {
	return &darwinBackend{domain: defaultsDomain}
}

// errMissingDefault marks a key that has never been written.
var errMissingDefault = errors.New("default not set")

// defaults runs one defaults(1) verb against the backend's domain.
func (b *darwinBackend) defaults(verb, key string, extra ...string) (string, error) {
	args := append([]string{verb, b.domain, key}, extra...)
	out, err := exec.Command("defaults", args...).CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && verb != "write" {
			return "", errMissingDefault
		}
		return "", fmt.Errorf("defaults %s %s: %w (%s)", verb, key, err, text)
	}
	return text, nil
}

func (b *darwinBackend) GetString(key string) (string, bool, error) {
	s, err := b.defaults("read", key)
	if errors.Is(err, errMissingDefault) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func (b *darwinBackend) GetInt(key string) (int, bool, error) {
	s, ok, err := b.GetString(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

func (b *darwinBackend) SetString(key, val string) error {
	_, err := b.defaults("write", key, "-string", val)
	return err
}

func (b *darwinBackend) SetInt(key string, val int) error {
	_, err := b.defaults("write", key, "-int", strconv.Itoa(val))
	return err
}

// Delete removes key; deleting an unset key succeeds.
func (b *darwinBackend) Delete(key string) error {
	_, err := b.defaults("delete", key)
	if errors.Is(err, errMissingDefault) {
		return nil
	}
	return err
}
