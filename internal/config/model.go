package config

type NodeConfig struct {
	WsRpcEndpoint    string `json:"ws_rpc_endpoint"`
	DialRetries      uint64 `json:"dial_retries"`
	DialTimeoutMs    int    `json:"dial_timeout_ms"`
	RequestTimeoutMs int    `json:"request_timeout_ms"`
}

type ChainConfig struct {
	DecoderTypesFile    string `json:"decoder_types_file"`
	AddressFormat       string `json:"address_format"`
	StoragePrefixScheme string `json:"storage_prefix_scheme"`
	WatchUntil          string `json:"watch_until"`
	SS58Prefix          uint16 `json:"ss58_prefix"`
	Tip                 uint64 `json:"tip"`
	MonitorRuntime      bool   `json:"monitor_runtime"`
}

type SignerConfig struct {
	Scheme string `json:"scheme"`
	Seed   string `json:"seed"`
}

type LogConfig struct {
	Level string `json:"level"`
	Json  bool   `json:"json"`
}

type MetricsConfig struct {
	ListenAddr string `json:"listen_addr"`
}

type Config struct {
	NodeConfig    NodeConfig    `json:"node_config"`
	ChainConfig   ChainConfig   `json:"chain_config"`
	SignerConfig  SignerConfig  `json:"signer_config"`
	LogConfig     LogConfig     `json:"log_config"`
	MetricsConfig MetricsConfig `json:"metrics_config"`
}
