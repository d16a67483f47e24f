// Package serve 基于 echo 的 HTTP 服务: 中间件, 错误处理, 日志与校验
package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"

	"github.com/chrmrtns/safefonts/pkg/snowflake"
)

type Options struct {
	Host      string
	Port      int
	BodyLimit string // 例如 "10M"
	Debug     bool
	Dev       bool

	// RateLimit 非 GET 请求每秒上限, 0 表示不限制
	RateLimit float64

	IDs *snowflake.Generator
}

type EchoServer struct {
	engine *echo.Echo
	opts   Options
}

// NewEchoServer 创建 echo 实例并安装中间件, init 负责注册路由
func NewEchoServer(opts Options, init func(e *echo.Echo) error) (*EchoServer, error) {
	if opts.BodyLimit == "" {
		opts.BodyLimit = "10M"
	}
	if _, err := bytes.Parse(opts.BodyLimit); err != nil {
		return nil, errors.Wrapf(err, "invalid BODY_LIMIT %q", opts.BodyLimit)
	}
	if opts.IDs == nil {
		opts.IDs = snowflake.MustNew(0)
	}

	engine := echo.New()
	engine.Debug = opts.Debug
	engine.HideBanner = true
	engine.HidePort = true
	engine.HTTPErrorHandler = httpErrorHandler
	engine.Logger = newLogger(logrus.WithField("module", "echo"))
	engine.JSONSerializer = jsonSerializer{}
	engine.Validator = NewCustomValidator()
	engine.Binder = NewCustomBinder()

	engine.Use(middleware.Recover())
	engine.Use(requestID(opts.IDs))
	engine.Use(middleware.BodyLimit(opts.BodyLimit))
	engine.Use(sessionMiddleware())
	engine.Use(httpLogMiddleware(opts.Debug))

	if opts.RateLimit > 0 {
		rlconfig := middleware.DefaultRateLimiterConfig
		rlconfig.Store = middleware.NewRateLimiterMemoryStore(rate.Limit(opts.RateLimit))
		rlconfig.Skipper = func(c echo.Context) bool {
			return c.Request().Method == http.MethodGet
		}
		engine.Use(middleware.RateLimiterWithConfig(rlconfig))
	}

	if init != nil {
		if err := init(engine); err != nil {
			return nil, errors.Wrap(err, "初始化路由失败")
		}
	}
	if opts.Dev {
		fmt.Println(RoutesTable(engine))
	}
	return &EchoServer{engine: engine, opts: opts}, nil
}

func (s *EchoServer) Engine() *echo.Echo {
	return s.engine
}

func (s *EchoServer) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Start 阻塞运行直到 ctx 取消或收到 SIGINT/SIGTERM, 然后优雅关闭
func (s *EchoServer) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- s.startup() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	xlog.Info("接收到退出信号, 关闭服务器")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.engine.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "强制关闭服务器")
	}
	return <-errc
}

// startup 启动 http/2 cleartext 服务器, https 交给前置代理
func (s *EchoServer) startup() error {
	h2s := &http2.Server{
		MaxReadFrameSize:     1024 * 1024 * 5,
		MaxConcurrentStreams: 250,
		IdleTimeout:          10 * time.Second,
	}
	xlog.Infof("HTTP 服务 %d 准备就绪, 监听地址 %s", os.Getpid(), s.Addr())

	err := s.engine.StartH2CServer(s.Addr(), h2s)
	if errors.Is(err, http.ErrServerClosed) {
		xlog.Debug("服务器关闭")
		return nil
	}
	return errors.Wrap(err, "启动服务器错")
}

func requestID(ids *snowflake.Generator) echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return "W" + strconv.FormatInt(ids.Next(), 10)
		},
	})
}

// RoutesTable 按路径排序的路由列表
func RoutesTable(e *echo.Echo) string {
	routes := e.Routes()
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})

	sb := strings.Builder{}
	for i, v := range routes {
		if v.Method == echo.RouteNotFound {
			continue
		}
		arr := strings.Split(v.Name, "/")
		fn := arr[len(arr)-1]
		sb.WriteString(fmt.Sprintf("\n%4d %-6s %-42s %s", i, v.Method, v.Path, fn))
	}
	return sb.String()
}
