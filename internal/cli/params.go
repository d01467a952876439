package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"go-subxt/internal/clients"
	"go-subxt/internal/codec"
	"go-subxt/internal/config"
	"go-subxt/internal/messages"
	"go-subxt/internal/metrics"
	"go-subxt/internal/signer"
)

// rootParams holds what every subcommand shares: configuration and the lazily built client.
type rootParams struct {
	configPath string
	url        string

	cfg     config.Config
	metrics *metrics.Metrics
	client  *clients.Client
	cancel  context.CancelFunc
}

func (p *rootParams) init(ctx context.Context) error {
	cfg, err := config.LoadConfig(&p.configPath)
	if err != nil {
		return err
	}
	if p.url != "" {
		cfg.NodeConfig.WsRpcEndpoint = p.url
	}
	p.cfg = cfg
	messages.SetLogger(messages.NewLogger(cfg.LogConfig.Level, cfg.LogConfig.Json))

	if err := codec.RegisterTypesFile(cfg.ChainConfig.DecoderTypesFile); err != nil {
		return err
	}

	if cfg.MetricsConfig.ListenAddr != "" {
		reg := prometheus.NewRegistry()
		if p.metrics, err = metrics.New(reg); err != nil {
			return err
		}
		serveCtx, cancel := context.WithCancel(ctx)
		p.cancel = cancel
		go func() {
			if err := metrics.Serve(serveCtx, cfg.MetricsConfig.ListenAddr, reg); err != nil {
				messages.NewClientMessage(messages.LOG_LEVEL_ERROR, "metrics", err, messages.METRICS_FAILED).ConsoleLog()
			}
		}()
	}
	return nil
}

// connect builds the client on first use.
func (p *rootParams) connect(ctx context.Context) (*clients.Client, error) {
	if p.client != nil {
		return p.client, nil
	}
	c, err := clients.NewClientBuilder().
		FromConfig(p.cfg).
		SetMetrics(p.metrics).
		Build(ctx)
	if err != nil {
		return nil, err
	}
	p.client = c
	return c, nil
}

func (p *rootParams) signer() (signer.Signer, error) {
	if p.cfg.SignerConfig.Seed == "" {
		return nil, fmt.Errorf("no signer seed configured, set signer_config.seed or SUBXT_SIGNER_SEED")
	}
	return signer.FromSeed(signer.Scheme(p.cfg.SignerConfig.Scheme), p.cfg.SignerConfig.Seed)
}

func (p *rootParams) close() {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			messages.NewClientMessage(messages.LOG_LEVEL_WARNING, "cli", err, messages.CLIENT_CLOSING).ConsoleLog()
		}
	}
	if p.cancel != nil {
		p.cancel()
	}
}
