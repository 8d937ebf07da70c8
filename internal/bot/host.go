package bot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/satgo1546/pykinezumiko/internal/config"
	"github.com/satgo1546/pykinezumiko/internal/docstore"
)

// Host receives gateway reports over HTTP and feeds them through the
// plugin chain in order, first handler wins.
type Host struct {
	cfg       config.Config
	gw        Gateway
	plugins   []*Dispatcher
	databases []*docstore.Database
	logger    *zap.Logger
	echo      *echo.Echo
	cron      *cron.Cron
	started   time.Time
}

func NewHost(cfg config.Config, gw Gateway, plugins []*Dispatcher, databases []*docstore.Database, logger *zap.Logger) *Host {
	h := &Host{
		cfg:       cfg,
		gw:        gw,
		plugins:   plugins,
		databases: databases,
		logger:    logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("HTTP request",
				zap.String("URI", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.GET("/", h.handleStatus)
	e.POST("/", h.handleEvent)
	h.echo = e
	return h
}

// Start binds the listener and serves until Shutdown. A busy port is
// retried indefinitely so a restarting predecessor can let go of it.
func (h *Host) Start() error {
	h.started = time.Now()
	if h.cfg.LocalTick > 0 {
		h.cron = cron.New()
		if _, err := h.cron.AddFunc("@every "+h.cfg.LocalTick.String(), h.tick); err != nil {
			return fmt.Errorf("schedule local tick: %w", err)
		}
		h.cron.Start()
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	ln, err := backoff.RetryWithData(func() (net.Listener, error) {
		ln, err := net.Listen("tcp", h.cfg.Listen)
		if errors.Is(err, syscall.EADDRINUSE) {
			h.logger.Warn("address in use, retrying", zap.String("listen", h.cfg.Listen))
			return nil, err
		} else if err != nil {
			return nil, backoff.Permanent(err)
		}
		return ln, nil
	}, bo)
	if err != nil {
		return fmt.Errorf("bind %s: %w", h.cfg.Listen, err)
	}

	h.echo.Listener = ln
	h.logger.Info("listening", zap.String("listen", h.cfg.Listen))
	if err := h.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight events and saves whatever is still dirty.
func (h *Host) Shutdown(ctx context.Context) error {
	if h.cron != nil {
		<-h.cron.Stop().Done()
	}
	err := h.echo.Shutdown(ctx)
	h.saveDirty(ctx, 0)
	return err
}

// tick synthesises a heartbeat for deployments whose gateway sends none.
func (h *Host) tick() {
	ev := Event{Time: time.Now().Unix(), PostType: "meta_event", SubType: "local_tick"}
	h.process(context.Background(), &ev)
}

func (h *Host) handleEvent(c echo.Context) error {
	var ev Event
	if err := c.Bind(&ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed event")
	}
	ingest := uuid.NewString()
	h.logger.Debug("event received",
		zap.String("ingest_id", ingest),
		zap.String("post_type", ev.PostType),
	)
	h.process(c.Request().Context(), &ev)
	// The gateway only wants an acknowledgement.
	return c.String(http.StatusOK, "")
}

// process runs the plugin chain and persists dirty databases before the
// event is acknowledged. Failures anywhere are reported back into the
// conversation, or to the admin context when the event has no source.
func (h *Host) process(ctx context.Context, ev *Event) {
	target, _ := ev.ContextSender()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		for _, d := range h.plugins {
			handled, err := d.HandleEvent(ctx, ev)
			if err != nil {
				return err
			}
			if handled {
				break
			}
		}
		h.saveDirty(ctx, target)
		return nil
	}()
	if err != nil {
		h.report(ctx, target, err)
	}
}

func (h *Host) saveDirty(ctx context.Context, target int64) {
	for _, db := range h.databases {
		if !db.Dirty() {
			continue
		}
		if err := db.Save(); err != nil {
			h.logger.Error("database save failed", zap.String("path", db.Path()), zap.Error(err))
			h.report(ctx, target, fmt.Errorf("save %s: %w", db.Path(), err))
		}
	}
}

func (h *Host) report(ctx context.Context, target int64, err error) {
	h.logger.Error("event processing failed", zap.Int64("target", target), zap.Error(err))
	message := "♻️ " + err.Error()
	if target == 0 {
		target = h.cfg.Admin
		message = "♻️ 处理无来源事件时发生了下列异常：" + err.Error()
	}
	if sendErr := h.gw.Send(ctx, target, message); sendErr != nil {
		h.logger.Warn("failure report undelivered", zap.Int64("target", target), zap.Error(sendErr))
	}
}

func (h *Host) handleStatus(c echo.Context) error {
	flows := 0
	for _, d := range h.plugins {
		flows += d.flows.Len()
	}
	dirty := 0
	for _, db := range h.databases {
		if db.Dirty() {
			dirty++
		}
	}
	status := fmt.Sprintf(
		"pykinezumiko 运行中。\n插件 %d 个，活动对话流 %d 个，数据库 %d 个（%d 个待保存），已运行 %s。\n",
		len(h.plugins), flows, len(h.databases), dirty,
		time.Since(h.started).Round(time.Second),
	)
	return c.String(http.StatusOK, status)
}
