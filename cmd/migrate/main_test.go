package main

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"testing"
)

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_cheque_documents.sql", true, 1, "create_cheque_documents"},
		{"0004_create_cheque_results.sql", true, 4, "create_cheque_results"},
		{"001_invalid.sql", false, 0, ""},       // wrong number format
		{"0001_test", false, 0, ""},             // missing .sql
		{"0001.sql", false, 0, ""},              // missing name
		{"invalid_0001_test.sql", false, 0, ""}, // wrong order
		{"0001_test.sql.bak", false, 0, ""},     // wrong extension
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			matches := migrationFilePattern.FindStringSubmatch(tt.filename)
			if (matches != nil) != tt.valid {
				t.Fatalf("match = %v, want valid = %v", matches != nil, tt.valid)
			}
			if !tt.valid {
				return
			}
			version, err := strconv.Atoi(matches[1])
			if err != nil {
				t.Fatalf("version parse error: %v", err)
			}
			if version != tt.version {
				t.Errorf("version = %d, want %d", version, tt.version)
			}
			if matches[2] != tt.name {
				t.Errorf("name = %q, want %q", matches[2], tt.name)
			}
		})
	}
}

func TestMigrationChecksumConsistency(t *testing.T) {
	content := []byte("CREATE TABLE test (id INT64);")
	other := []byte("CREATE TABLE different (id INT64);")

	a := fmt.Sprintf("%x", sha256.Sum256(content))
	b := fmt.Sprintf("%x", sha256.Sum256(content))
	c := fmt.Sprintf("%x", sha256.Sum256(other))

	if a != b {
		t.Error("same content should produce the same checksum")
	}
	if a == c {
		t.Error("different content should produce different checksums")
	}
}
