package config

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		expected string
	}{
		{name: "normal secret", secret: "mySecAuth123!@#$%^&*()_+", expected: "myS...)_+"},
		{name: "empty secret", secret: "", expected: "<not set>"},
		{name: "short secret - 6 chars", secret: "abcdef", expected: "***"},
		{name: "exactly 7 chars", secret: "1234567", expected: "123...567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskSecret(tt.secret)
			if got != tt.expected {
				t.Errorf("maskSecret(%q) = %q, want %q", tt.secret, got, tt.expected)
			}
		})
	}
}

func TestGenerateSecureSecret(t *testing.T) {
	secret, err := generateSecureSecret(32)
	if err != nil {
		t.Fatalf("generateSecureSecret failed: %v", err)
	}
	if len(secret) < 40 {
		t.Errorf("generated secret too short: %d chars", len(secret))
	}
	if _, err := base64.StdEncoding.DecodeString(secret); err != nil {
		t.Errorf("generated secret is not valid base64: %v", err)
	}

	secret2, _ := generateSecureSecret(32)
	if secret == secret2 {
		t.Error("generated secrets should be random, got identical values")
	}
}

func TestValidateAPIKeySecret(t *testing.T) {
	tests := []struct {
		name         string
		secret       string
		isProduction bool
		wantErr      bool
		errContains  string
	}{
		{name: "valid secret - development", secret: "aB1!dEfGhIjXlMnOpQrStUvWxYz0Pp23", isProduction: false, wantErr: false},
		{name: "valid secret - production", secret: "Xa1!Yb2@Zc3#Wd4$Ee5%Ff6^Gg7&Hh8*Ii9(Jj0)Kk!MmSTU", isProduction: true, wantErr: false},
		{name: "too short - development", secret: "short", isProduction: false, wantErr: true, errContains: "at least 32"},
		{name: "too short for production", secret: "aB1!sD2@eF3#gH4$iJ5%kL6^mN7&oP8*", isProduction: true, wantErr: true, errContains: "at least 48"},
		{name: "only whitespace", secret: strings.Repeat(" ", 33), isProduction: false, wantErr: true, errContains: "only whitespace"},
		{name: "repeated characters", secret: "aaaaaaaB1!dEfGhIjKlMnOpQrStUvWxYz", isProduction: false, wantErr: true, errContains: "repeated"},
		{name: "sequential numbers", secret: "MyToken12345678!@#$%^&*()_+-=[]XY", isProduction: false, wantErr: true, errContains: "sequential"},
		{name: "weak pattern password", secret: "MyPasswordKey123!@#$%^&*()_+-=QZ", isProduction: false, wantErr: true, errContains: "weak pattern"},
		{name: "insufficient entropy", secret: "ajklfhvbjkxcmbnvjkxcmnbvjkxcmbnvjkxc", isProduction: false, wantErr: true, errContains: "character classes"},
		{name: "production only 3 types", secret: "aBsD2eF3gH4iJ5kL6mN7oP8qR9tU0vW1xY2zAB3cD4eF5gH", isProduction: true, wantErr: true, errContains: "all 4 character classes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAPIKeySecret(tt.secret, tt.isProduction)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAPIKeySecret() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %v, should contain %q", err, tt.errContains)
				}
			}
		})
	}
}

func TestConfig_String_MasksSecrets(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Env: "test", Port: "8080", ProductionDomain: "example.com"},
		Database: DatabaseConfig{
			Host: "localhost", Port: 5432, Name: "test_db", User: "postgres",
			Password: "super_secret_password_12345", SSLMode: "disable",
		},
		Engine: EngineConfig{MaxSeconds: 30, ForbiddenPeriodsHard: true},
		Auth:   AuthConfig{AdminAPIKey: "super_secret_admin_key_abcdefghij"},
	}

	str := cfg.String()

	for _, secret := range []string{"super_secret_password_12345", "super_secret_admin_key_abcdefghij"} {
		if strings.Contains(str, secret) {
			t.Errorf("String() leaked secret %q: %s", secret, str)
		}
	}

	for _, expected := range []string{"test", "8080", "localhost", "postgres", "test_db", "disable"} {
		if !strings.Contains(str, expected) {
			t.Errorf("String() should contain %q: %s", expected, str)
		}
	}
}

func TestValidate_DatabasePasswordRequiredInProduction(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		password string
		wantErr  bool
		errMsg   string
	}{
		{name: "production_with_empty_password", env: "production", password: "", wantErr: true, errMsg: "DB_PASSWORD must not be empty in production"},
		{name: "production_with_password", env: "production", password: "secure_password_123", wantErr: false},
		{name: "development_with_empty_password", env: "development", password: "", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server: ServerConfig{Env: tt.env, Port: "8080", ProductionDomain: "example.com"},
				Database: DatabaseConfig{
					Host: "localhost", Port: 5432, Name: "test_db", User: "postgres",
					Password: tt.password, SSLMode: "require",
				},
				Engine: EngineConfig{MaxSeconds: 30},
				Auth:   AuthConfig{AdminAPIKey: "aB1!cDeF2gHiJ3kLmN4oPqRs5tUvWx67"},
			}

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, should contain %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidate_ProductionRequiresDomainAndSSL(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Env: "production", Port: "8080", ProductionDomain: "example.com"},
			Database: DatabaseConfig{
				Host: "db.example.com", Port: 5432, Name: "prod_db", User: "prod_user",
				Password: "password123", SSLMode: "require",
			},
			Engine: EngineConfig{MaxSeconds: 30},
			Auth:   AuthConfig{AdminAPIKey: "Xa1!Yb2@Zc3#Wd4$Ee5%Ff6^Gg7&Hh8*Ii9(Jj0)Kk!MmSTU"},
		}
	}

	missingDomain := base()
	missingDomain.Server.ProductionDomain = ""
	if err := missingDomain.Validate(); err == nil || !strings.Contains(err.Error(), "PRODUCTION_DOMAIN is required") {
		t.Errorf("expected PRODUCTION_DOMAIN error, got %v", err)
	}

	sslDisabled := base()
	sslDisabled.Database.SSLMode = "disable"
	if err := sslDisabled.Validate(); err == nil || !strings.Contains(err.Error(), "SSL must be enabled") {
		t.Errorf("expected SSL error, got %v", err)
	}

	valid := base()
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid config to pass, got %v", err)
	}
}

func TestConfig_GetDSN(t *testing.T) {
	withPassword := &DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "secret", Name: "db", SSLMode: "require"}
	if !strings.Contains(withPassword.GetDSN(), "password=secret") {
		t.Error("DSN should include password when set")
	}

	withoutPassword := &DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "db", SSLMode: "require"}
	if strings.Contains(withoutPassword.GetDSN(), "password=") {
		t.Error("DSN should omit password when empty")
	}
}

func TestConfig_IsProductionIsDevelopment(t *testing.T) {
	prod := &Config{Server: ServerConfig{Env: "production"}}
	if !prod.IsProduction() || prod.IsDevelopment() {
		t.Error("production config misclassified")
	}

	dev := &Config{Server: ServerConfig{Env: "development"}}
	if dev.IsProduction() || !dev.IsDevelopment() {
		t.Error("development config misclassified")
	}
}
