package input

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/WangYihang/Domain-Checker/pkg/infrastructure/domainservice"
)

func TestLoaderReadFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test_*.txt")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	testData := `
example.com
# comment
test.org, other.net
  spaces.com
`
	if _, err := tmpFile.WriteString(testData); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	tmpFile.Close()

	l := NewLoader(domainservice.NewValidator(domainservice.ValidatorConfig{}), nil)
	entries, err := l.ReadFile(tmpFile.Name())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	expected := []string{"example.com", "test.org", "other.net", "spaces.com"}
	if !reflect.DeepEqual(entries, expected) {
		t.Errorf("ReadFile = %v, want %v", entries, expected)
	}
}

func TestLoaderReadFileMissing(t *testing.T) {
	l := NewLoader(domainservice.NewValidator(domainservice.ValidatorConfig{}), nil)
	if _, err := l.ReadFile("/nonexistent/domains.txt"); err == nil {
		t.Error("ReadFile should fail for a missing file")
	}
}

func TestReadLines(t *testing.T) {
	entries, err := ReadLines(strings.NewReader("a.com b.com\tc.com;d.com\n\n#skip.com\n"))
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}

	expected := []string{"a.com", "b.com", "c.com", "d.com"}
	if !reflect.DeepEqual(entries, expected) {
		t.Errorf("ReadLines = %v, want %v", entries, expected)
	}
}

func TestLoaderIngest(t *testing.T) {
	l := NewLoader(domainservice.NewValidator(domainservice.ValidatorConfig{}), nil)

	report := l.Ingest([]string{
		"Example.com",
		"-bad.com",
		"ab.co",
		"example.com",
		"a.co",
		"example.com.",
		"nodot",
		"zz.io",
	})

	expected := []string{"example.com", "ab.co", "zz.io"}
	if !reflect.DeepEqual(report.Domains, expected) {
		t.Errorf("Ingest().Domains = %v, want %v", report.Domains, expected)
	}
	if report.Rejected != 3 {
		t.Errorf("Ingest().Rejected = %d, want 3", report.Rejected)
	}
	if report.Duplicates != 2 {
		t.Errorf("Ingest().Duplicates = %d, want 2", report.Duplicates)
	}
}

func TestLoaderIngestEmpty(t *testing.T) {
	l := NewLoader(domainservice.NewValidator(domainservice.ValidatorConfig{}), nil)

	report := l.Ingest(nil)
	if len(report.Domains) != 0 || report.Rejected != 0 || report.Duplicates != 0 {
		t.Errorf("Ingest(nil) = %+v, want empty report", report)
	}
}
