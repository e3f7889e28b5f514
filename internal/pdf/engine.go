package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"portfolio/internal/resume"
)

// 三个失败点各自独立包装，调用方不用解析底层错误就能区分
// 环境问题（启动）、内容问题（加载超时）、导出问题。
var (
	ErrEngineLaunch   = errors.New("pdf engine launch failed")
	ErrContentTimeout = errors.New("pdf content load timed out")
	ErrExport         = errors.New("pdf export failed")
)

// 内容加载的唯一显式超时。
const contentLoadTimeout = 30 * time.Second

const mmPerInch = 25.4

// session 抽象一次浏览器会话，便于在测试中替换。
type session interface {
	setContent(html string, timeout time.Duration) error
	exportPDF(size resume.PageSize, margins resume.Margins) ([]byte, error)
	screenshot(quality int) ([]byte, error)
}

// Engine 驱动无头 Chromium 把自包含 HTML 栅格化为分页 PDF。
// 每次调用获取独立的浏览器进程，任何返回路径都保证释放。
type Engine struct {
	loadTimeout time.Duration
	newSession  func(ctx context.Context) (session, func(), error)
}

// NewEngine 构造默认引擎。
func NewEngine() *Engine {
	return &Engine{
		loadTimeout: contentLoadTimeout,
		newSession:  newRodSession,
	}
}

// Export 加载 HTML 并导出 PDF。页面尺寸与四边边距（毫米）按参数原样应用，
// 文档级 CSS 不参与边距控制。
func (e *Engine) Export(ctx context.Context, html string, size resume.PageSize, margins resume.Margins) ([]byte, error) {
	sess, cleanup, err := e.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineLaunch, err)
	}
	defer cleanup()

	if err := sess.setContent(html, e.loadTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentTimeout, err)
	}

	data, err := sess.exportPDF(size, margins)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	return data, nil
}

// Screenshot 加载 HTML 并截取整页 JPEG，供版本预览图使用。
func (e *Engine) Screenshot(ctx context.Context, html string, quality int) ([]byte, error) {
	sess, cleanup, err := e.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineLaunch, err)
	}
	defer cleanup()

	if err := sess.setContent(html, e.loadTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentTimeout, err)
	}

	data, err := sess.screenshot(quality)
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return data, nil
}

type rodSession struct {
	page *rod.Page
}

// newRodSession 启动无头 Chromium 并打开一个页面。
// 返回的 cleanup 负责关闭页面、断开浏览器并回收进程，调用方必须无条件执行。
func newRodSession(ctx context.Context) (session, func(), error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)

	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		launch.Cleanup()
		return nil, nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		launch.Cleanup()
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Timeout(contentLoadTimeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		launch.Cleanup()
		return nil, nil, fmt.Errorf("create page: %w", err)
	}

	cleanup := func() {
		_ = page.Close()
		_ = browser.Close()
		launch.Cleanup()
	}
	return &rodSession{page: page}, cleanup, nil
}

func (s *rodSession) setContent(html string, timeout time.Duration) error {
	page := s.page.Timeout(timeout)
	if err := page.SetDocumentContent(html); err != nil {
		return fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	// 等到网络空闲，webfont 请求完成后再导出。
	if err := page.WaitIdle(timeout); err != nil {
		return fmt.Errorf("wait idle: %w", err)
	}
	return nil
}

func (s *rodSession) exportPDF(size resume.PageSize, margins resume.Margins) ([]byte, error) {
	width, height := size.Dimensions()
	params := &proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      float64Ptr(width),
		PaperHeight:     float64Ptr(height),
		MarginTop:       float64Ptr(margins.Top / mmPerInch),
		MarginBottom:    float64Ptr(margins.Bottom / mmPerInch),
		MarginLeft:      float64Ptr(margins.Left / mmPerInch),
		MarginRight:     float64Ptr(margins.Right / mmPerInch),
	}
	reader, err := s.page.PDF(params)
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}

func (s *rodSession) screenshot(quality int) ([]byte, error) {
	req := &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: intPtr(quality),
	}
	data, err := s.page.Screenshot(true, req)
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	return data, nil
}

func float64Ptr(value float64) *float64 {
	return &value
}

func intPtr(value int) *int {
	return &value
}
