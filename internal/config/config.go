package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// ISTLoc is the exchange time zone (UTC+5:30). We use FixedZone to avoid a
// dependency on the host tzdata.
var ISTLoc = time.FixedZone("IST", 5*3600+1800)

// Venue holds the data-vendor connection settings. The access token is an
// opaque bearer credential acquired and refreshed outside this process.
type Venue struct {
	ClientID     string
	AccessToken  string
	APIBaseURL   string
	WebsocketURL string
}

// Strategy holds the gap-up short tuning knobs.
type Strategy struct {
	PortfolioValue     float64
	RiskPerTradePct    float64
	MaxPositions       int
	MinGapPct          float64
	MinSellingPressure float64
	MinVolumeRatio     float64
	MinConfidence      float64
	StopLossPct        float64
	TargetPct          float64
}

// Trading holds the session window and cycle pacing.
type Trading struct {
	MarketStartHour    int
	MarketStartMinute  int
	MarketEndHour      int
	MarketEndMinute    int
	SignalEndHour      int
	SignalEndMinute    int
	MonitoringInterval time.Duration
}

// Stream holds the push-channel tuning.
type Stream struct {
	ConnectTimeout       time.Duration
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
}

// Poll holds the REST fallback tuning.
type Poll struct {
	Interval     time.Duration
	ErrorBackoff time.Duration
	ChunkSize    int
	ChunkDelay   time.Duration
}

// Config is the full runtime configuration, loaded once at startup.
type Config struct {
	Venue    Venue
	Strategy Strategy
	Trading  Trading
	Stream   Stream
	Poll     Poll

	MetricsAddr   string
	WebhookURL    string
	JournalFile   string
	MaxLogSizeMB  int64
	MaxLogBackups int
}

// Load reads the .env file (if present) into the environment, validates the
// required credentials, and builds the Config from environment variables with
// defaults. Missing credentials are fatal: the process must not reach the run
// loop without a bearer token.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	required := []string{"VENUE_CLIENT_ID", "VENUE_ACCESS_TOKEN"}
	var missing []string
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("CRITICAL: Missing required environment variables: %v", missing)
	}

	cfg := &Config{
		Venue: Venue{
			ClientID:     os.Getenv("VENUE_CLIENT_ID"),
			AccessToken:  os.Getenv("VENUE_ACCESS_TOKEN"),
			APIBaseURL:   getEnvAsString("VENUE_API_URL", "https://api-t1.fyers.in/api/v3"),
			WebsocketURL: getEnvAsString("VENUE_WS_URL", "wss://api-t1.fyers.in/socket/v2/dataSock"),
		},
		Strategy: Strategy{
			PortfolioValue:     getEnvAsFloat64("PORTFOLIO_VALUE", 1000000),
			RiskPerTradePct:    getEnvAsFloat64("RISK_PER_TRADE_PCT", 1.0),
			MaxPositions:       getEnvAsInt("MAX_POSITIONS", 3),
			MinGapPct:          getEnvAsFloat64("MIN_GAP_PCT", 0.5),
			MinSellingPressure: getEnvAsFloat64("MIN_SELLING_PRESSURE", 40.0),
			MinVolumeRatio:     getEnvAsFloat64("MIN_VOLUME_RATIO", 1.2),
			MinConfidence:      getEnvAsFloat64("MIN_CONFIDENCE", 0.6),
			StopLossPct:        getEnvAsFloat64("STOP_LOSS_PCT", 1.5),
			TargetPct:          getEnvAsFloat64("TARGET_PCT", 3.0),
		},
		Trading: Trading{
			MarketStartHour:    getEnvAsInt("MARKET_START_HOUR", 9),
			MarketStartMinute:  getEnvAsInt("MARKET_START_MINUTE", 15),
			MarketEndHour:      getEnvAsInt("MARKET_END_HOUR", 15),
			MarketEndMinute:    getEnvAsInt("MARKET_END_MINUTE", 30),
			SignalEndHour:      getEnvAsInt("SIGNAL_END_HOUR", 10),
			SignalEndMinute:    getEnvAsInt("SIGNAL_END_MINUTE", 30),
			MonitoringInterval: getEnvAsDuration("MONITORING_INTERVAL_SEC", 30*time.Second),
		},
		Stream: Stream{
			ConnectTimeout:       getEnvAsDuration("WS_CONNECT_TIMEOUT_SEC", 30*time.Second),
			ReconnectInterval:    getEnvAsDuration("WS_RECONNECT_INTERVAL_SEC", 5*time.Second),
			MaxReconnectAttempts: getEnvAsInt("WS_MAX_RECONNECT_ATTEMPTS", 10),
		},
		Poll: Poll{
			Interval:     getEnvAsDuration("POLL_INTERVAL_SEC", 5*time.Second),
			ErrorBackoff: getEnvAsDuration("POLL_ERROR_BACKOFF_SEC", 10*time.Second),
			ChunkSize:    getEnvAsInt("POLL_CHUNK_SIZE", 25),
			ChunkDelay:   getEnvAsDuration("POLL_CHUNK_DELAY_SEC", 1*time.Second),
		},
		MetricsAddr:   getEnvAsString("METRICS_ADDR", ""),
		WebhookURL:    getEnvAsString("WEBHOOK_URL", ""),
		JournalFile:   getEnvAsString("JOURNAL_FILE", "trades.jsonl"),
		MaxLogSizeMB:  int64(getEnvAsInt("MAX_LOG_SIZE_MB", 10)),
		MaxLogBackups: getEnvAsInt("MAX_LOG_BACKUPS", 3),
	}

	echoEnv(required)
	return cfg
}

// echoEnv prints the variables found in the .env file, masking secrets so the
// startup log never leaks a token.
func echoEnv(secretKeys []string) {
	envMap, err := godotenv.Read()
	if err != nil {
		return
	}
	secrets := make(map[string]bool, len(secretKeys))
	for _, k := range secretKeys {
		secrets[k] = true
	}
	log.Println("--- .env File Variables ---")
	for key, val := range envMap {
		if secrets[key] {
			masked := "***"
			if len(val) > 4 {
				masked = "***" + val[len(val)-4:]
			}
			log.Printf("%s=%s", key, masked)
		} else {
			log.Printf("%s=%s", key, val)
		}
	}
	log.Println("---------------------------")
}
