package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

// Secrets file layout: [salt][nonce][ciphertext+tag], AES-256-GCM keyed by
// scrypt(password, salt). Grounded on the teacher's
// Encrypt/DecryptSecretsFile pair; adapted here to hold exactly one JSON
// object — {modelID: apiKey, ...} ∪ {"mcp:"+serverID: apiKey, ...} — rather
// than an arbitrary named-secret store, since the only secrets this
// runtime persists are ModelInfo/MCPServerInfo API keys (spec §6 DOMAIN
// STACK: "encrypting ModelInfo.apiKey / MCPServerInfo.apiKey at rest").
const (
	secretsFileName = "secrets.json.enc"
	saltSize        = 16
	nonceSize       = 12
	scryptN         = 32768 // 2^15
	scryptR         = 8
	scryptP         = 1
	keySize         = 32 // AES-256
)

// mcpSecretPrefix distinguishes an MCP server's secret key from a model's
// within the single flat secrets map, since the two ID spaces are
// independently assigned and could otherwise collide.
const mcpSecretPrefix = "mcp:"

// secretsPassphraseEnv names the environment variable holding the
// passphrase used to derive the encryption key. Grounded on the teacher's
// project-password concept, simplified to a single env var since this
// runtime has no interactive WebUI login to source it from.
const secretsPassphraseEnv = "A3SIST_SECRETS_PASSPHRASE"

// passphrase returns the configured secrets passphrase, or an error if
// none is set. Every encrypt/decrypt call goes through this so a missing
// passphrase fails loudly rather than silently using a zero-value key.
func passphrase() (string, error) {
	p := os.Getenv(secretsPassphraseEnv)
	if p == "" {
		return "", fmt.Errorf("%s is not set; required to encrypt/decrypt stored API keys", secretsPassphraseEnv)
	}
	return p, nil
}

// extractSecrets pulls Models[].APIKey and MCPServers[].APIKey out of c,
// encrypts them into <dir>/.a3sist/secrets.json.enc, and blanks the
// in-place copy so the caller can safely marshal c to disk without
// leaking plaintext credentials.
func extractSecrets(dir string, c *Config) error {
	secrets := make(map[string]string)
	for i := range c.Models {
		if c.Models[i].APIKey != "" {
			secrets[c.Models[i].ID] = c.Models[i].APIKey
			c.Models[i].APIKey = ""
		}
	}
	for i := range c.MCPServers {
		if c.MCPServers[i].APIKey != "" {
			secrets[mcpSecretPrefix+c.MCPServers[i].ID] = c.MCPServers[i].APIKey
			c.MCPServers[i].APIKey = ""
		}
	}
	if len(secrets) == 0 {
		return nil
	}

	pass, err := passphrase()
	if err != nil {
		return err
	}
	return encryptSecretsFile(dir, pass, secrets)
}

// hydrateSecrets reverses extractSecrets: it decrypts the secrets store
// and copies each API key back onto the matching Models/MCPServers entry
// in-memory. A missing secrets file is not an error - it means no model
// or server has been given a key yet.
func hydrateSecrets(dir string, c *Config) error {
	path := filepath.Join(dir, ConfigDirName, secretsFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	pass, err := passphrase()
	if err != nil {
		return err
	}
	secrets, err := decryptSecretsFile(dir, pass)
	if err != nil {
		return err
	}

	for i := range c.Models {
		if key, ok := secrets[c.Models[i].ID]; ok {
			c.Models[i].APIKey = key
		}
	}
	for i := range c.MCPServers {
		if key, ok := secrets[mcpSecretPrefix+c.MCPServers[i].ID]; ok {
			c.MCPServers[i].APIKey = key
		}
	}
	return nil
}

// encryptSecretsFile encrypts and saves secrets to
// <dir>/.a3sist/secrets.json.enc with 0600 permissions.
func encryptSecretsFile(dir, password string, secrets map[string]string) error {
	passwordBytes := []byte(password)
	defer zero(passwordBytes)

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key(passwordBytes, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return fmt.Errorf("failed to derive encryption key: %w", err)
	}
	defer zero(key)

	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	fileData := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	fileData = append(fileData, salt...)
	fileData = append(fileData, nonce...)
	fileData = append(fileData, ciphertext...)

	secretsDir := filepath.Join(dir, ConfigDirName)
	if err := os.MkdirAll(secretsDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path := filepath.Join(secretsDir, secretsFileName)
	if err := os.WriteFile(path, fileData, 0o600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

// decryptSecretsFile decrypts and returns the secrets map from
// <dir>/.a3sist/secrets.json.enc.
func decryptSecretsFile(dir, password string) (map[string]string, error) {
	path := filepath.Join(dir, ConfigDirName, secretsFileName)

	fileData, err := os.ReadFile(path) //nolint:gosec // path built from caller-supplied project dir
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	minSize := saltSize + nonceSize + 16 // 16 is the GCM tag size
	if len(fileData) < minSize {
		return nil, fmt.Errorf("secrets file is corrupted or in an invalid format")
	}

	salt := fileData[:saltSize]
	nonce := fileData[saltSize : saltSize+nonceSize]
	ciphertext := fileData[saltSize+nonceSize:]

	passwordBytes := []byte(password)
	defer zero(passwordBytes)

	key, err := scrypt.Key(passwordBytes, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive decryption key: %w", err)
	}
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong passphrase or corrupted file)")
	}

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secrets: %w", err)
	}
	return secrets, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
