package messages

type ClientLogLevel string

var (
	// generics
	FAILED_TYPE_ASSERTION = "Failed type assertion"

	// configuration
	CONFIG_NO_CUSTOM_PATH_SPECIFIED = "No config file path specified with --config. Using default path."
	CONFIG_STARTED_LOADING          = "The client configuration is loaded from %s"
	CONFIG_FILE_MISSING             = "Config file %s not found, using defaults and environment"
	CONFIG_FINISHED_LOADING         = "The client configuration successfully loaded"
	CONFIG_ENV_FILE_LOADED          = "Environment overrides loaded from %s"

	// connection
	CONNECTION_DIALING      = "Connecting to node at %s"
	CONNECTION_DIAL_RETRY   = "Dial attempt %d to %s failed"
	CONNECTION_ESTABLISHED  = "Connected to node at %s"
	CONNECTION_CLOSED       = "Connection to %s closed"
	CONNECTION_READ_FAILED  = "Failed to read from node connection"
	CONNECTION_BAD_FRAME    = "Dropping malformed frame from node"
	CONNECTION_REDIALING    = "Connection to %s dropped, dialing again"
	CONNECTION_UNKNOWN_SUB  = "Notification for unknown subscription %s"
	CONNECTION_UNSUB_FAILED = "Failed to unsubscribe %s"

	// metadata
	META_FETCHING       = "Fetching runtime metadata"
	META_PARSED         = "Parsed metadata v%d with %d modules"
	META_FAILED_TO_LOAD = "Failed to load metadata"

	// spec version
	SPEC_VERSION_RETRIEVED      = "Runtime %s spec version %d, transaction version %d"
	SPEC_VERSION_CHANGED        = "Runtime upgraded from spec version %d to %d, client is stale"
	SPEC_VERSION_MONITOR_FAILED = "Runtime version subscription ended"
	SPEC_VERSION_RANGE          = "Spec version %d runs from block %d to %d"

	// extrinsic
	EXTRINSIC_SUBMITTING       = "Submitting %s.%s with nonce %d"
	EXTRINSIC_SUBMITTED        = "Extrinsic %s submitted"
	EXTRINSIC_STATUS           = "Extrinsic %s status %s"
	EXTRINSIC_INCLUDED         = "Extrinsic %s included at index %d of block %s with %d events"
	EXTRINSIC_SUBMIT_FAILED    = "Failed to submit extrinsic"
	EXTRINSIC_NONCE_QUERIED    = "Account nonce queried from chain: %d"
	EXTRINSIC_EXTENSIONS_FALLB = "Metadata declares no signed extensions, using the default set"

	// client
	CLIENT_BUILDING = "Building client for %s"
	CLIENT_READY    = "Client ready, genesis %s"
	CLIENT_CLOSING  = "Closing client"

	// metrics
	METRICS_LISTENING = "Serving metrics on %s"
	METRICS_FAILED    = "Metrics server stopped"
)

const (
	LOG_LEVEL_INFO    ClientLogLevel = "INFO"
	LOG_LEVEL_ERROR   ClientLogLevel = "ERROR"
	LOG_LEVEL_WARNING ClientLogLevel = "WARNING"
	LOG_LEVEL_SUCCESS ClientLogLevel = "SUCCESS"
	LOG_LEVEL_DEBUG   ClientLogLevel = "DEBUG"
)

type ClientMessage struct {
	LogLevel       ClientLogLevel
	Component      string
	Error          error
	FormatString   string
	AdditionalInfo []interface{}
}
