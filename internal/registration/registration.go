// Package registration enforces the dashboard's sign-up policy before a
// new backend user is provisioned through magic-link or OAuth login.
package registration

import (
	"slices"

	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/eggsplain/eggsplain-front/internal/emailutil"
)

// Validate decides whether the address may proceed. Existing users always
// may; new users are checked against the allow lists and the
// restrict-registration switch. An empty return means allowed; otherwise
// the message is surfaced to the user with a 403.
func Validate(email string, userExists bool, cfg config.RegistrationConfig) string {
	if userExists {
		return ""
	}

	normalized := emailutil.Normalize(email)

	if len(cfg.AllowedEmails) > 0 {
		for _, allowed := range cfg.AllowedEmails {
			if emailutil.Normalize(allowed) == normalized {
				return ""
			}
		}
	}

	if len(cfg.AllowedDomains) > 0 {
		domain := emailutil.ExtractDomain(normalized)
		if slices.Contains(cfg.AllowedDomains, domain) {
			return ""
		}
		// Domain list configured and the address matches neither list
		return "Registration is limited to approved email domains. Contact your administrator."
	}

	if len(cfg.AllowedEmails) > 0 {
		return "This email address is not approved for registration. Contact your administrator."
	}

	if cfg.RestrictRegistration {
		return "New registrations are currently disabled. Contact your administrator."
	}

	return ""
}
