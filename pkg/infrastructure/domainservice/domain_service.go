package domainservice

import (
	"regexp"
	"strings"

	"github.com/WangYihang/Domain-Checker/pkg/domain/service"
	"golang.org/x/net/publicsuffix"
)

// domainPattern accepts a single label of 2-63 characters (alphanumeric at both
// ends, hyphens allowed inside) followed by an alphabetic TLD.
var domainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,61}[a-zA-Z0-9]\.[a-zA-Z]{2,}$`)

// Validator implements service.DomainValidator
type Validator struct {
	domainRegex *regexp.Regexp
	strictTLD   bool
}

// ValidatorConfig holds validator configuration
type ValidatorConfig struct {
	// StrictTLD additionally requires the TLD to be an ICANN-managed public suffix
	StrictTLD bool
}

// NewValidator creates a new domain validator
func NewValidator(config ValidatorConfig) service.DomainValidator {
	return &Validator{
		domainRegex: domainPattern,
		strictTLD:   config.StrictTLD,
	}
}

// IsValid checks if a domain name is valid
func (v *Validator) IsValid(domain string) bool {
	if domain == "" {
		return false
	}
	if !v.domainRegex.MatchString(domain) {
		return false
	}
	if v.strictTLD {
		return isICANNSuffix(domain)
	}
	return true
}

// isICANNSuffix reports whether the domain's TLD is an ICANN-managed public suffix
func isICANNSuffix(domain string) bool {
	domain = strings.ToLower(domain)
	suffix, icann := publicsuffix.PublicSuffix(domain)
	if !icann {
		return false
	}
	return suffix == domain[strings.LastIndexByte(domain, '.')+1:]
}

// Normalize trims whitespace, a trailing root dot, and lower-cases the domain
func Normalize(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimSuffix(domain, ".")
	return strings.ToLower(domain)
}
