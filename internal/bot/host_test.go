package bot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/satgo1546/pykinezumiko/internal/bot/mock"
	"github.com/satgo1546/pykinezumiko/internal/config"
	"github.com/satgo1546/pykinezumiko/internal/docstore"
)

type failPlugin struct{}

func (p *failPlugin) Name() string { return "必败" }

func (p *failPlugin) OnMessage(_ context.Context, _, _ int64, _ string, _ int64) any {
	return errors.New("boom")
}

func testConfig() config.Config {
	return config.Config{
		Listen:        "127.0.0.1:0",
		Admin:         -114514,
		FlowRetention: 24 * time.Hour,
	}
}

func newTestHost(t *testing.T, gw Gateway, databases []*docstore.Database, plugins ...Plugin) *Host {
	t.Helper()
	logger := zap.NewNop()
	dispatchers := make([]*Dispatcher, len(plugins))
	for i, p := range plugins {
		dispatchers[i] = NewDispatcher(p, NewFlows(24*time.Hour), gw, logger)
	}
	return NewHost(testConfig(), gw, dispatchers, databases, logger)
}

func TestProcessFirstHandlerWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mock.NewMockGateway(ctrl)
	first := &echoPlugin{reply: true}
	second := &echoPlugin{reply: true}
	h := newTestHost(t, gw, nil, first, second)

	h.process(context.Background(), msgEvent(5, 0, "喂", 1))

	assert.Len(t, first.got, 1)
	assert.Empty(t, second.got)
}

func TestProcessFallsThroughUnhandled(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mock.NewMockGateway(ctrl)
	first := &echoPlugin{reply: nil}
	second := &echoPlugin{reply: true}
	h := newTestHost(t, gw, nil, first, second)

	h.process(context.Background(), msgEvent(5, 0, "喂", 1))

	assert.Len(t, first.got, 1)
	assert.Len(t, second.got, 1)
}

func TestProcessReportsFailureToContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mock.NewMockGateway(ctrl)
	h := newTestHost(t, gw, nil, &failPlugin{})

	gw.EXPECT().Send(gomock.Any(), int64(5), gomock.Cond(func(m string) bool {
		return strings.HasPrefix(m, "♻️ ") && strings.Contains(m, "boom")
	})).Return(nil)

	h.process(context.Background(), msgEvent(5, 0, "喂", 1))
}

func TestProcessReportsSourcelessFailureToAdmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mock.NewMockGateway(ctrl)
	h := newTestHost(t, gw, nil, &recallPlugin{})

	gw.EXPECT().GetMessage(gomock.Any(), int64(42)).Return("", errors.New("boom"))
	gw.EXPECT().Send(gomock.Any(), int64(-114514), gomock.Cond(func(m string) bool {
		return strings.HasPrefix(m, "♻️ 处理无来源事件时发生了下列异常：")
	})).Return(nil)

	// A recall with no user attached has no context to report into.
	h.process(context.Background(), &Event{
		PostType: "notice", NoticeType: "friend_recall", MessageID: 42,
	})
}

type counterRecord struct {
	docstore.Base
	N int64
}

func TestProcessSavesDirtyDatabases(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mock.NewMockGateway(ctrl)

	path := filepath.Join(t.TempDir(), "counter.xlsx")
	table := docstore.NewTable[counterRecord]("计数")
	db, err := docstore.Open(path, table)
	require.NoError(t, err)

	counting := &echoPlugin{reply: true}
	h := newTestHost(t, gw, []*docstore.Database{db}, counting)

	table.Put("total", &counterRecord{N: 1})
	require.True(t, db.Dirty())

	h.process(context.Background(), msgEvent(5, 0, "喂", 1))

	assert.False(t, db.Dirty())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestHandleEventHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mock.NewMockGateway(ctrl)
	p := &echoPlugin{reply: true}
	h := newTestHost(t, gw, nil, p)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
		`{"post_type":"message","message_type":"private","user_id":5,"message_id":1,"raw_message":"你好"}`,
	))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, []string{"你好"}, p.got)
}

func TestStatusPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mock.NewMockGateway(ctrl)
	h := newTestHost(t, gw, nil, &echoPlugin{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "运行中")
}
