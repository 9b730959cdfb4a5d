package ws

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/avezina/liveshop/internal/config"
)

// OriginChecker builds the upgrade origin policy: exact match against
// the configured allow-list, wildcard match on the trusted suffix
// domain, permissive fallback outside production, rejection otherwise.
func OriginChecker(cfg *config.Config) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header.
			return true
		}
		for _, allowed := range cfg.AllowedOrigins {
			if strings.EqualFold(origin, allowed) {
				return true
			}
		}
		if cfg.TrustedOriginSuffix != "" {
			if u, err := url.Parse(origin); err == nil {
				host := u.Hostname()
				if host == strings.TrimPrefix(cfg.TrustedOriginSuffix, ".") ||
					strings.HasSuffix(host, ensureDot(cfg.TrustedOriginSuffix)) {
					return true
				}
			}
		}
		if !cfg.IsProduction() {
			return true
		}
		log.Warn().Str("module", "adapters.ws").Str("origin", origin).Msg("origin rejected")
		return false
	}
}

func ensureDot(suffix string) string {
	if strings.HasPrefix(suffix, ".") {
		return suffix
	}
	return "." + suffix
}
