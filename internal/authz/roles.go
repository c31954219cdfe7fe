package authz

import (
	"strings"

	"deeptech/internal/models"
)

func IsAdmin(role string) bool {
	return role == models.RoleAdmin
}

// AdminEmailAllowed — email админа должен быть на зарезервированном домене
// или явно в allow-list. Email сюда приходит уже нормализованным (trim+lower).
func AdminEmailAllowed(email, domainSuffix string, allowlist []string) bool {
	for _, allowed := range allowlist {
		if email == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	if domainSuffix == "" {
		return false
	}
	return strings.HasSuffix(email, strings.ToLower(domainSuffix))
}
