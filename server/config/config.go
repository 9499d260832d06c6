package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はサーバーの環境変数設定です。
type Config struct {
	Addr string `env:"ADDR" envDefault:"localhost"`
	Port string `env:"PORT" envDefault:"9090"`

	// TokenSecret はアクセストークンのHMAC鍵です。
	TokenSecret string `env:"TOKEN_SECRET" envDefault:"dev-secret"`

	// IdleTimeout は接続をアイドル切断するまでの時間です。
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"30s"`

	// FinishedMatchTTL は終了済みマッチを回収するまでの猶予です。
	FinishedMatchTTL time.Duration `env:"FINISHED_MATCH_TTL" envDefault:"1m"`
	// ReapInterval はマッチ回収ループの周期です。
	ReapInterval time.Duration `env:"REAP_INTERVAL" envDefault:"30s"`
	// QueueDedupe は同一プロフィールの重複エンキューを拒否します。
	QueueDedupe bool `env:"QUEUE_DEDUPE" envDefault:"false"`

	// OTLPEndpoint が空ならテレメトリ出力は無効のままです。
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load は環境変数からConfigを読み込みます。
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) ListenAddr() string {
	return c.Addr + ":" + c.Port
}
