package render

import (
	"fmt"
	"net/url"
	"strings"

	"portfolio/internal/resume"
)

// documentShell 是所有模板共用的文档外壳。
// 占位符依次为：webfont 链接、字体栈、字号(pt)、行高、正文颜色、标题字体栈、正文 HTML。
// @page 边距固定为 0：实际边距只由 PDF 引擎应用，保证边距控制只有一处。
const documentShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<link rel="preconnect" href="https://fonts.googleapis.com">
<link href="https://fonts.googleapis.com/css2?family=%s:wght@400;500;600;700&display=swap" rel="stylesheet">
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
html { -webkit-print-color-adjust: exact; print-color-adjust: exact; }
@page { margin: 0; }
body { font-family: %s; font-size: %dpt; line-height: %g; color: %s; }
h1, h2, h3 { font-family: %s; }
</style>
</head>
<body>
%s
</body>
</html>
`

// wrapDocument 把模板正文包进自包含的打印文档。
func wrapDocument(body string, data *resume.Data) string {
	style := data.Style
	return fmt.Sprintf(documentShell,
		webfontFamilyParam(style.FontFamily),
		style.FontFamily,
		style.FontSizePt,
		style.LineHeight,
		style.PrimaryColor,
		style.HeadingFont,
		body,
	)
}

// webfontFamilyParam 取字体栈中第一个以逗号分隔的字体族，去掉引号并做 URL 转义。
// 已知限制：引号内含逗号的字体族名不支持，上游行为同样未定义。
func webfontFamilyParam(fontFamily string) string {
	first := fontFamily
	if idx := strings.Index(fontFamily, ","); idx >= 0 {
		first = fontFamily[:idx]
	}
	first = strings.TrimSpace(first)
	first = strings.Trim(first, `'"`)
	return url.QueryEscape(first)
}
