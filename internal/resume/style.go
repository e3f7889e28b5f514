package resume

// Margins 是四边页边距，单位毫米。PDF 引擎是唯一应用边距的地方。
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Style 是解析完成的简历样式，所有字段都有值。
type Style struct {
	PrimaryColor string  `json:"primary_color"`
	AccentColor  string  `json:"accent_color"`
	FontFamily   string  `json:"font_family"`
	HeadingFont  string  `json:"heading_font"`
	FontSizePt   int     `json:"font_size_pt"`
	LineHeight   float64 `json:"line_height"`
	Margins      Margins `json:"margins"`
}

// StylePatch 是部分样式：nil 字段表示不覆盖，回落到低优先级来源。
// 模板的 style_config 与配置的 style_overrides 都用这个结构。
type StylePatch struct {
	PrimaryColor *string      `json:"primary_color,omitempty"`
	AccentColor  *string      `json:"accent_color,omitempty"`
	FontFamily   *string      `json:"font_family,omitempty"`
	HeadingFont  *string      `json:"heading_font,omitempty"`
	FontSizePt   *int         `json:"font_size_pt,omitempty"`
	LineHeight   *float64     `json:"line_height,omitempty"`
	Margins      *MarginPatch `json:"margins,omitempty"`
}

// MarginPatch 允许按边覆盖页边距。
type MarginPatch struct {
	Top    *float64 `json:"top,omitempty"`
	Right  *float64 `json:"right,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
	Left   *float64 `json:"left,omitempty"`
}

// DefaultStyle 返回硬编码的默认样式。
func DefaultStyle() Style {
	return Style{
		PrimaryColor: "#111827",
		AccentColor:  "#2563eb",
		FontFamily:   "Inter, sans-serif",
		HeadingFont:  "Inter, sans-serif",
		FontSizePt:   10,
		LineHeight:   1.5,
		Margins:      Margins{Top: 15, Right: 15, Bottom: 15, Left: 15},
	}
}

// ResolveStyle 按 默认 < 模板 < 配置覆盖 的优先级逐字段合并样式。
// patch 为 nil 时跳过该层。
func ResolveStyle(patches ...*StylePatch) Style {
	style := DefaultStyle()
	for _, patch := range patches {
		style = style.apply(patch)
	}
	return style
}

func (s Style) apply(p *StylePatch) Style {
	if p == nil {
		return s
	}
	if p.PrimaryColor != nil {
		s.PrimaryColor = *p.PrimaryColor
	}
	if p.AccentColor != nil {
		s.AccentColor = *p.AccentColor
	}
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.HeadingFont != nil {
		s.HeadingFont = *p.HeadingFont
	}
	if p.FontSizePt != nil {
		s.FontSizePt = *p.FontSizePt
	}
	if p.LineHeight != nil {
		s.LineHeight = *p.LineHeight
	}
	if p.Margins != nil {
		if p.Margins.Top != nil {
			s.Margins.Top = *p.Margins.Top
		}
		if p.Margins.Right != nil {
			s.Margins.Right = *p.Margins.Right
		}
		if p.Margins.Bottom != nil {
			s.Margins.Bottom = *p.Margins.Bottom
		}
		if p.Margins.Left != nil {
			s.Margins.Left = *p.Margins.Left
		}
	}
	return s
}
