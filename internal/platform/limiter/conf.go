package limiter

import "kilter/internal/platform/config"

// FromConf builds a Limiter from a classifier-scoped config view
func FromConf(cfg config.Conf) *Limiter {
	return New(cfg.MayInt("MAX_INFLIGHT", 3))
}
