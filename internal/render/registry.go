package render

import (
	"errors"
	"fmt"
	"sort"

	"portfolio/internal/resume"
)

// ErrTemplateNotFound 表示模板 Key 没有对应的注册渲染函数。
// 注意与"模板数据库行不存在"区分：后者在装配阶段回落到默认值，不报错。
var ErrTemplateNotFound = errors.New("resume template not found")

// Func 把装配好的简历数据渲染成正文 HTML 片段。
type Func func(data *resume.Data) (string, error)

// Registry 维护模板 Key 到渲染函数的映射。
type Registry struct {
	templates map[string]Func
}

// NewRegistry 返回注册了全部内置模板的注册表。
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]Func)}
	r.Register(TemplateClassic, renderClassic)
	r.Register(TemplateModern, renderModern)
	return r
}

// Register 注册或覆盖一个模板渲染函数。
func (r *Registry) Register(key string, fn Func) {
	r.templates[key] = fn
}

// Get 返回 Key 对应的渲染函数。
func (r *Registry) Get(key string) (Func, bool) {
	fn, ok := r.templates[key]
	return fn, ok
}

// Keys 返回已注册的模板 Key（有序，便于展示）。
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.templates))
	for k := range r.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render 渲染完整的打印就绪文档：正文由模板产出，外层文档壳负责
// 字体引入、样式重置与打印颜色设置。相同输入保证字节一致的输出。
func (r *Registry) Render(key string, data *resume.Data) (string, error) {
	fn, ok := r.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, key)
	}
	body, err := fn(data)
	if err != nil {
		return "", fmt.Errorf("render template %q: %w", key, err)
	}
	return wrapDocument(body, data), nil
}
