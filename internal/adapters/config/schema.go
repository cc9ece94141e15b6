package config

// File represents the structure of the ferry.yaml configuration file.
type File struct {
	Servers          []ServerDTO `yaml:"servers"`
	EnableUDP        bool        `yaml:"enable_udp"`
	DNSCacheCapacity *int        `yaml:"dns_cache_capacity"`
	DNS              DNSDTO      `yaml:"dns"`
	Timeout          string      `yaml:"timeout"`
	UDP              UDPDTO      `yaml:"udp"`
	Limits           LimitsDTO   `yaml:"limits"`
	ReusePort        bool        `yaml:"reuse_port"`
	Log              LogDTO      `yaml:"log"`
}

// ServerDTO represents one relay endpoint.
type ServerDTO struct {
	Name    string `yaml:"name"`
	Listen  string `yaml:"listen"`
	Target  string `yaml:"target"`
	Timeout string `yaml:"timeout"`
}

// DNSDTO represents the resolver upstream section.
type DNSDTO struct {
	Nameservers []string `yaml:"nameservers"`
	TTL         string   `yaml:"ttl"`
	Timeout     string   `yaml:"timeout"`
}

// UDPDTO represents the datagram relay section.
type UDPDTO struct {
	MaxAssociations int    `yaml:"max_associations"`
	Timeout         string `yaml:"timeout"`
}

// LimitsDTO represents process resource limits.
type LimitsDTO struct {
	NoFile         uint64 `yaml:"nofile"`
	MaxConnections int    `yaml:"max_connections"`
}

// LogDTO represents the logging section.
type LogDTO struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
