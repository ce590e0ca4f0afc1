package http

const (
	defaultSwagPath    = "/swagger/*any"
	defaultMetricsPath = "/metrics"
	defaultHealthPath  = "/health"
)

type Options struct {
	Swag    SwagOption
	Metrics MetricsOption
	Health  HealthOption
}

type SwagOption struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

func (s *SwagOption) init() {
	if s.Path == "" {
		s.Path = defaultSwagPath
	}
}

type MetricsOption struct {
	Enabled                   bool   `json:"enabled" mapstructure:"enabled"`
	Path                      string `json:"path" mapstructure:"path"`
	EnabledGoCollector        bool   `json:"enabled_go_collector" mapstructure:"enabled_go_collector"`
	EnabledBuildInfoCollector bool   `json:"enabled_build_info_collector" mapstructure:"enabled_build_info_collector"`
}

func (m *MetricsOption) init() {
	if m.Path == "" {
		m.Path = defaultMetricsPath
	}
}

type HealthOption struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

func (h *HealthOption) init() {
	if h.Path == "" {
		h.Path = defaultHealthPath
	}
}
