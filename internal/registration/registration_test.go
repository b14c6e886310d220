package registration

import (
	"testing"

	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestExistingUsersAlwaysPass(t *testing.T) {
	cfg := config.RegistrationConfig{
		RestrictRegistration: true,
		AllowedDomains:       []string{"example.com"},
		AllowedEmails:        []string{"only@example.com"},
	}

	assert.Empty(t, Validate("anyone@anywhere.net", true, cfg))
}

func TestOpenRegistration(t *testing.T) {
	assert.Empty(t, Validate("new@anywhere.net", false, config.RegistrationConfig{}))
}

func TestRestrictRegistration(t *testing.T) {
	cfg := config.RegistrationConfig{RestrictRegistration: true}

	denial := Validate("new@anywhere.net", false, cfg)
	assert.Contains(t, denial, "registrations are currently disabled")
}

func TestAllowedEmails(t *testing.T) {
	cfg := config.RegistrationConfig{AllowedEmails: []string{"VIP@Example.Com"}}

	assert.Empty(t, Validate("vip@example.com", false, cfg), "allow list comparison is case-insensitive")
	denial := Validate("other@example.com", false, cfg)
	assert.Contains(t, denial, "not approved for registration")
}

func TestAllowedDomains(t *testing.T) {
	cfg := config.RegistrationConfig{AllowedDomains: []string{"example.com"}}

	assert.Empty(t, Validate("anyone@example.com", false, cfg))
	denial := Validate("anyone@other.net", false, cfg)
	assert.Contains(t, denial, "approved email domains")
}

func TestEmailListTrumpsDomainDenial(t *testing.T) {
	cfg := config.RegistrationConfig{
		AllowedDomains: []string{"example.com"},
		AllowedEmails:  []string{"contractor@partner.net"},
	}

	assert.Empty(t, Validate("contractor@partner.net", false, cfg))
	assert.NotEmpty(t, Validate("stranger@partner.net", false, cfg))
}
