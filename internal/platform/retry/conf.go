package retry

import "kilter/internal/platform/config"

// FromConf builds a Policy from a classifier-scoped config view,
// falling back to the Default posture per knob
func FromConf(cfg config.Conf) Policy {
	d := Default()
	return Policy{
		MaxRetries: cfg.MayInt("RETRY_MAX", d.MaxRetries),
		Base:       cfg.MayDuration("RETRY_BASE", d.Base),
		Cap:        cfg.MayDuration("RETRY_CAP", d.Cap),
		Jitter:     cfg.MayDuration("RETRY_JITTER", d.Jitter),
	}
}
