package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ardanlabs/conf"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/veritick/veritick/adapters/clock"
	"github.com/veritick/veritick/adapters/events"
	"github.com/veritick/veritick/adapters/store"
	"github.com/veritick/veritick/adapters/tokenizer"
	"github.com/veritick/veritick/core"
	"github.com/veritick/veritick/metrics"
	"github.com/veritick/veritick/ports"
	"github.com/veritick/veritick/service"
	transport "github.com/veritick/veritick/transport/http"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "VERITICK"

func main() {
	if err := run(); err != nil {
		log.Fatalf("main: exited with error: %s", err.Error())
	}
}

func run() error {
	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
	logger, err := zapConfig.Build()
	if err != nil {
		return fmt.Errorf("creating logger: %v", err)
	}
	defer logger.Sync()
	sLogger := logger.Sugar()

	var cfg struct {
		Server struct {
			ListenAddr        string `conf:"default:0.0.0.0:8080"`
			MetricsListenAddr string `conf:"default:0.0.0.0:9999"`
		}
		Session struct {
			KeyHex    string        `conf:"optional,noprint"`
			Version   uint          `conf:"default:1"`
			RoomCode  uint          `conf:"default:1"`
			TargetFPS int           `conf:"default:30"`
			TokenTTL  time.Duration `conf:"default:2h"`
		}
		Clock struct {
			OracleURL string `conf:"optional"`
		}
		Log struct {
			Capacity int `conf:"default:500"`
		}
		Redis struct {
			URL string `conf:"optional"`
		}
		Metrics struct {
			Namespace string `conf:"default:veritick"`
		}
	}

	if err := conf.Parse(os.Args[1:], envPrefix, &cfg); err != nil {
		switch {
		case err == conf.ErrHelpWanted:
			usage, err := conf.Usage(envPrefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			fmt.Println(usage)
			return nil
		case err == conf.ErrVersionWanted:
			version, err := conf.VersionString(envPrefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	sLogger.Infof("config:\n%v", out)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cipher key: operator-supplied keys survive restarts, session keys
	// never leave this process.
	var cipher *core.Cipher
	keyMode := service.KeyModeSession
	if cfg.Session.KeyHex != "" {
		cipher, err = core.NewCipherFromHex(cfg.Session.KeyHex)
		if err != nil {
			return fmt.Errorf("loading operator key: %w", err)
		}
		keyMode = service.KeyModeOperator
	} else {
		key, err := core.NewSessionKey()
		if err != nil {
			return fmt.Errorf("generating session key: %w", err)
		}
		cipher, err = core.NewCipher(key)
		if err != nil {
			return fmt.Errorf("creating cipher: %w", err)
		}
	}

	recorder := store.NewTokenCache(cfg.Session.TokenTTL)
	defer recorder.Stop()

	// Attendance log and scan events: Redis when configured, in-memory
	// otherwise.
	var attendLog ports.AttendanceLog
	var eventPub ports.EventPublisher
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parsing redis url: %w", err)
		}
		redisClient := redis.NewClient(opts)
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer redisClient.Close()

		attendLog = store.NewRedisLog(redisClient, cfg.Log.Capacity)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			return fmt.Errorf("creating redis publisher: %w", err)
		}
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		attendLog = store.NewMemoryLog(cfg.Log.Capacity)
	}

	m := metrics.NewMetrics(cfg.Metrics.Namespace)

	session := service.NewGeneratorSession(cipher, recorder, sLogger, m, service.SessionConfig{
		Version:   uint8(cfg.Session.Version),
		RoomCode:  uint8(cfg.Session.RoomCode),
		TargetFPS: cfg.Session.TargetFPS,
		KeyMode:   keyMode,
	})

	// One-shot clock sync against the configured oracle; failures leave
	// the offset at zero.
	if cfg.Clock.OracleURL != "" {
		session.SyncClock(ctx, clock.NewHTTPOracle(cfg.Clock.OracleURL))
	}

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generating operator signing key: %w", err)
	}
	opTokenizer := tokenizer.NewJWTTokenizer(signKey)

	operatorToken, err := opTokenizer.IssueOperatorToken(session.ID())
	if err != nil {
		return fmt.Errorf("issuing operator token: %w", err)
	}
	sLogger.Infow("operator token issued", "session_id", session.ID(), "token", operatorToken)

	attendance := service.NewAttendanceService(attendLog, eventPub, sLogger, m)
	reports := service.NewReportService(attendLog)

	go session.Run(ctx)

	go func() {
		sLogger.Infow("metrics listening", "addr", cfg.Server.MetricsListenAddr)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.Server.MetricsListenAddr, mux); err != nil {
			sLogger.Errorw("metrics server stopped", "error", err)
		}
	}()

	router := transport.SetupRouter(session, attendance, reports, opTokenizer)
	server := &http.Server{Addr: cfg.Server.ListenAddr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		sLogger.Infow("server listening", "addr", cfg.Server.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	sLogger.Info("shutdown complete")
	return nil
}
