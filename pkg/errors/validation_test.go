package errors

import (
	"strings"
	"testing"
)

func TestValidateEntityName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"standard", "Account", false},
		{"custom", "Invoice__c", false},
		{"namespaced", "ns__Widget__c", false},
		{"external", "Archive__x", false},
		{"with digits", "Object2", false},

		{"empty", "", true},
		{"too long", strings.Repeat("A", 81), true},
		{"path traversal", "../Account", true},
		{"slash", "Account/describe", true},
		{"backslash", "Account\\x", true},
		{"control char", "Acc\x01ount", true},
		{"newline", "Account\n", true},
		{"leading digit", "1Account", true},
		{"leading underscore", "_Account", true},
		{"trailing underscore", "Account_", true},
		{"space", "My Object", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntityName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEntityName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidEntity) {
				t.Errorf("ValidateEntityName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidEntity)
			}
		})
	}
}

func TestValidateAPIVersion(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"v60.0", false},
		{"60.0", false},
		{"v9.0", false},
		{"", true},
		{"v60", true},
		{"latest", true},
		{"v60.0/../", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateAPIVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeAPIVersion(t *testing.T) {
	if got := NormalizeAPIVersion("60.0"); got != "v60.0" {
		t.Errorf("NormalizeAPIVersion(60.0) = %q", got)
	}
	if got := NormalizeAPIVersion("v60.0"); got != "v60.0" {
		t.Errorf("NormalizeAPIVersion(v60.0) = %q", got)
	}
}

func TestValidateInstanceURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"my domain", "https://acme.my.salesforce.com", false},
		{"trailing slash", "https://acme.my.salesforce.com/", false},
		{"loopback http", "http://127.0.0.1:8080", false},
		{"localhost http", "http://localhost:9000", false},

		{"empty", "", true},
		{"no scheme", "acme.my.salesforce.com", true},
		{"plain http", "http://acme.my.salesforce.com", true},
		{"with path", "https://acme.my.salesforce.com/services", true},
		{"ftp", "ftp://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInstanceURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInstanceURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com", false},
		{"http", "http://example.com", false},
		{"empty", "", true},
		{"javascript", "javascript:alert(1)", true},
		{"file", "file:///etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
